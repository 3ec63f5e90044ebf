package dispatch

import "strings"

// resolveResult turns an action's raw return value into the final dispatch
// result. String values walk the cascade below, first satisfied branch wins:
//
//	a. an entry in the action's own result map equal to the value;
//	b. the action's match-any entry, or a value containing ':' parsed as
//	   "type:location";
//	c. a process-wide result named by the value;
//	d. the undefined-result hook.
//
// Non-string values (nil included) go to the non-string hook. In every
// branch a non-nil handler return replaces the result; nil keeps it.
func (r *Router) resolveResult(inv *Invocation, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		if out := r.objectResult(inv, raw); out != nil {
			return out, nil
		}
		return raw, nil
	}

	action := inv.action

	if res, ok := action.results[s]; ok {
		out, err := r.invokeResultType(inv, res)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
		return s, nil
	}

	if res, ok := action.results[MatchAny]; ok || strings.Contains(s, ":") {
		var matchAny *Result
		if ok {
			matchAny = &res
		}
		out, err := r.invokeColonResult(inv, matchAny, s)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
		return s, nil
	}

	if gr, ok := r.results[s]; ok {
		final := any(s)
		out, err := gr.fn(inv)
		if err != nil {
			return nil, err
		}
		if out != nil {
			final = out
		}
		if gr.result.Type != "" {
			out, err = r.invokeResultType(inv, gr.result)
			if err != nil {
				return nil, err
			}
			if out != nil {
				final = out
			}
		}
		return final, nil
	}

	if out := r.undefinedResult(inv, s); out != nil {
		return out, nil
	}
	return s, nil
}

// invokeResultType runs the result type named by res.Type, falling back to
// the router default when empty. A missing result type is fatal.
func (r *Router) invokeResultType(inv *Invocation, res Result) (any, error) {
	typ := res.Type
	if typ == "" {
		typ = r.cfg.DefaultResultType
	}
	rt, ok := r.resultTypes[typ]
	if !ok {
		return nil, &NotFoundError{Kind: "result type", Name: typ}
	}
	inv.setResult(res)
	r.log.Debug("invoke result type", "type", typ, "action", inv.action.path)
	return rt(inv, res)
}

// invokeColonResult handles the match-any branch: the raw value is parsed as
// "type:location", with the match-any entry (when present) supplying the
// defaults that the parse may override.
func (r *Router) invokeColonResult(inv *Invocation, matchAny *Result, raw string) (any, error) {
	typ := r.cfg.DefaultResultType
	loc := ""
	if matchAny != nil {
		if matchAny.Type != "" {
			typ = matchAny.Type
		}
		loc = matchAny.Location
	}
	typ, loc = parseTypeLocation(raw, typ, loc)
	return r.invokeResultType(inv, Result{Name: MatchAny, Type: typ, Location: loc})
}

// parseTypeLocation splits raw at its first ':'. A non-empty trimmed left
// side overrides the default type; a non-empty trimmed right side overrides
// the default location. With no colon the whole trimmed string is the type;
// with a leading colon the trimmed remainder is the location.
func parseTypeLocation(raw, defType, defLoc string) (string, string) {
	typ, loc := defType, defLoc
	idx := strings.IndexByte(raw, ':')
	switch idx {
	case -1:
		if t := strings.TrimSpace(raw); t != "" {
			typ = t
		}
	case 0:
		if l := strings.TrimSpace(raw[1:]); l != "" {
			loc = l
		}
	default:
		if t := strings.TrimSpace(raw[:idx]); t != "" {
			typ = t
		}
		if l := strings.TrimSpace(raw[idx+1:]); l != "" {
			loc = l
		}
	}
	return typ, loc
}

func (r *Router) objectResult(inv *Invocation, value any) any {
	if r.cfg.NonStringResult != nil {
		return r.cfg.NonStringResult(inv, value)
	}
	r.log.Warn("non-string result returned directly", "action", inv.action.path)
	return nil
}

func (r *Router) undefinedResult(inv *Invocation, value string) any {
	if r.cfg.UndefinedResult != nil {
		return r.cfg.UndefinedResult(inv, value)
	}
	r.log.Warn("undefined result, returning string directly", "result", value, "action", inv.action.path)
	return nil
}

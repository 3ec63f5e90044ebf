package dispatch

// resolveChain builds an action's interceptor chain at registration time.
// First applicable rule wins:
//
//  1. the action declares interceptor names (its stack, if any, expands
//     first, then the named interceptors append);
//  2. the action declares only a stack name;
//  3. the namespace declares a stack and/or interceptor names;
//  4. the router's default stack.
//
// Unresolvable names are logged and skipped; they never abort registration.
func (r *Router) resolveChain(def *ActionDef, path string) []chainedInterceptor {
	var chain []chainedInterceptor

	if len(def.Interceptors) > 0 {
		if def.InterceptorStack != "" {
			chain = r.appendStack(chain, def.InterceptorStack, path)
		}
		chain = r.appendInterceptors(chain, def.Interceptors, path)
		return chain
	}

	if def.InterceptorStack != "" {
		return r.appendStack(chain, def.InterceptorStack, path)
	}

	if ns := def.Namespace; ns != nil {
		declared := false
		if ns.InterceptorStack != "" {
			declared = true
			chain = r.appendStack(chain, ns.InterceptorStack, path)
		}
		if len(ns.Interceptors) > 0 {
			declared = true
			chain = r.appendInterceptors(chain, ns.Interceptors, path)
		}
		if declared {
			return chain
		}
	}

	if r.cfg.DefaultInterceptorStack != "" {
		chain = r.appendStack(chain, r.cfg.DefaultInterceptorStack, path)
	}
	return chain
}

func (r *Router) appendStack(chain []chainedInterceptor, stackName, path string) []chainedInterceptor {
	stack, ok := r.stacks[stackName]
	if !ok {
		r.log.Warn("no such interceptor stack", "stack", stackName, "action", path)
		return chain
	}
	return append(chain, stack.chain...)
}

func (r *Router) appendInterceptors(chain []chainedInterceptor, names []string, path string) []chainedInterceptor {
	for _, n := range names {
		fn, ok := r.interceptors[n]
		if !ok {
			r.log.Warn("no such interceptor", "interceptor", n, "action", path)
			continue
		}
		chain = append(chain, chainedInterceptor{name: n, fn: fn})
	}
	return chain
}

package dispatch

import "log/slog"

// Config carries the router's recognized options. Use DefaultConfig as the
// starting point; a zero Config disables caching and suffix stripping.
type Config struct {
	// Separator is the path segment separator. Zero means '/'.
	Separator rune

	// Suffix is the path suffix marker stripped before matching. A single
	// non-alphanumeric character truncates at its last occurrence; a longer
	// string is stripped when the path ends with it. Empty disables
	// stripping.
	Suffix string

	// CacheCapacity bounds the wildcard cache tier. Zero or negative
	// disables caching entirely; every dispatch walks the trie.
	CacheCapacity int

	// DefaultInterceptorStack names the stack applied to actions that
	// declare no interceptors and whose namespace declares none.
	DefaultInterceptorStack string

	// DefaultResultType names the result type used when a result declares
	// none.
	DefaultResultType string

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger

	// NonStringResult handles non-string action return values. A non-nil
	// return replaces the final result; nil keeps the raw value. If unset,
	// the raw value is kept.
	NonStringResult func(inv *Invocation, value any) any

	// UndefinedResult handles string return values that matched nothing.
	// A non-nil return replaces the final result; nil keeps the string.
	// If unset, the string is kept.
	UndefinedResult func(inv *Invocation, value string) any
}

// DefaultConfig returns the standard options: '/' separator, '.' suffix,
// and a 10000-entry wildcard cache tier.
func DefaultConfig() Config {
	return Config{
		Separator:     '/',
		Suffix:        ".",
		CacheCapacity: 10000,
	}
}

package caching

import "fmt"

const (
	// ImmutableMaxAge is one year, the longest lifetime caches honour in practice.
	ImmutableMaxAge = 31536000

	DefaultSharedMaxAge = 3600
	DefaultClientMaxAge = 60

	immutableDirective = "public, max-age=31536000, immutable"
	privateDirective   = "private, no-store, no-cache, must-revalidate"
)

// Policy selects the Cache-Control directive for a representation. Only the
// max-age values of live public content are tunable; SharedMaxAge must not be
// smaller than ClientMaxAge.
type Policy struct {
	SharedMaxAge int
	ClientMaxAge int
}

// DefaultPolicy lets shared caches hold live public content for an hour and
// browsers for a minute.
var DefaultPolicy = Policy{
	SharedMaxAge: DefaultSharedMaxAge,
	ClientMaxAge: DefaultClientMaxAge,
}

// DirectiveFor maps the visibility and immutability of a representation to a
// Cache-Control value. Private content is never stored by any cache,
// immutable public content is cached for a year, and live public content
// is cached longer by shared caches than by browsers.
func (p Policy) DirectiveFor(public, immutable bool) string {
	if !public {
		return privateDirective
	}
	if immutable {
		return immutableDirective
	}
	return fmt.Sprintf("public, s-maxage=%d, max-age=%d", p.SharedMaxAge, p.ClientMaxAge)
}

// DirectiveFor applies DefaultPolicy.
func DirectiveFor(public, immutable bool) string {
	return DefaultPolicy.DirectiveFor(public, immutable)
}

// ImmutableDirective is the directive for published versions.
func ImmutableDirective() string {
	return immutableDirective
}

// PrivateDirective is the directive for token-gated content.
func PrivateDirective() string {
	return privateDirective
}

package domain

// CookieDirective instructs the HTTP layer to set or clear a cookie. State
// store and auth service decide cookie contents without touching the
// response writer, which keeps them testable as plain functions. Directives
// are always applied as httpOnly, same-site cookies by the HTTP layer.
type CookieDirective struct {
	Name   string
	Value  string
	MaxAge int
	Secure bool
}

// SetCookie builds a directive that stores a value for maxAge seconds.
func SetCookie(name, value string, maxAge int, secure bool) CookieDirective {
	return CookieDirective{Name: name, Value: value, MaxAge: maxAge, Secure: secure}
}

// ClearCookie builds a directive that removes a cookie from the client.
func ClearCookie(name string, secure bool) CookieDirective {
	return CookieDirective{Name: name, MaxAge: -1, Secure: secure}
}

package transport

import (
	"maps"
	"net/http"
	"slices"
)

// Credentials is the credential set returned by a successful login: the
// session cookies the server issued, keyed by cookie name. A nil set means
// the request is sent anonymously.
type Credentials map[string]string

// CredentialsFromCookies collects the cookies a response set. Cookies the
// server is deleting (negative MaxAge or an empty value) are skipped. The
// result is never nil, so a login that sets no cookies still yields a
// usable, empty credential set.
func CredentialsFromCookies(cookies []*http.Cookie) Credentials {
	creds := make(Credentials, len(cookies))
	for _, c := range cookies {
		if c.MaxAge < 0 || c.Value == "" {
			continue
		}
		creds[c.Name] = c.Value
	}
	return creds
}

// Clone returns an independent copy. Cloning nil yields nil.
func (c Credentials) Clone() Credentials {
	if c == nil {
		return nil
	}
	return maps.Clone(c)
}

// Names returns the cookie names in sorted order.
func (c Credentials) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

func (c Credentials) apply(req *http.Request) {
	for _, name := range c.Names() {
		req.AddCookie(&http.Cookie{Name: name, Value: c[name]})
	}
}

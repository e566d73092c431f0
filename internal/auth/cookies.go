package auth

import (
	"net/http"
	"time"
)

const (
	AccessCookieName  = "Authentication"
	RefreshCookieName = "Refresh"
)

// CookieOptions controls attributes shared by both credential cookies.
type CookieOptions struct {
	Secure bool
	Domain string
}

// SetCredentialCookies writes both credentials as http-only cookies expiring with them.
func SetCredentialCookies(w http.ResponseWriter, creds Credentials, opts CookieOptions) {
	http.SetCookie(w, credentialCookie(AccessCookieName, creds.AccessToken, creds.AccessExpiresAt, opts))
	http.SetCookie(w, credentialCookie(RefreshCookieName, creds.RefreshToken, creds.RefreshExpiresAt, opts))
}

// ClearCredentialCookies expires both credential cookies.
func ClearCredentialCookies(w http.ResponseWriter, opts CookieOptions) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		cookie := credentialCookie(name, "", time.Unix(0, 0), opts)
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func credentialCookie(name, value string, expires time.Time, opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   opts.Domain,
		Expires:  expires,
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

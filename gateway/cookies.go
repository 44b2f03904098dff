package gateway

import (
	"net/http"
	"strings"
	"time"
)

// sessionCookie builds the Set-Cookie carrying a freshly minted session
// token. HttpOnly keeps scripts away from it; SameSite=Lax still allows the
// provider's redirect back to carry it.
func sessionCookie(name, token string, maxAge time.Duration, r *http.Request) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	}
}

// clearedCookie expires the session cookie immediately.
func clearedCookie(name string, r *http.Request) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

// stripCookie removes the named cookie from the request's Cookie header,
// leaving every other cookie for the origin.
func stripCookie(r *http.Request, name string) {
	cookies := r.Cookies()
	if len(cookies) == 0 {
		return
	}

	kept := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		if cookie.Name == name {
			continue
		}
		kept = append(kept, cookie.String())
	}

	if len(kept) == 0 {
		r.Header.Del("Cookie")
		return
	}
	r.Header.Set("Cookie", strings.Join(kept, "; "))
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

// originalURL captures the requested URL as path plus query, the only form
// that round-trips through a state token.
func originalURL(r *http.Request) string {
	requested := r.URL.Path
	if requested == "" {
		requested = "/"
	}
	if r.URL.RawQuery != "" {
		requested += "?" + r.URL.RawQuery
	}
	return requested
}

// sanitizeReturnURL confines a recovered return URL to this origin. Anything
// absolute, protocol-relative or otherwise suspect collapses to the root.
func sanitizeReturnURL(returnURL string) string {
	if returnURL == "" || returnURL[0] != '/' {
		return "/"
	}
	if strings.HasPrefix(returnURL, "//") || strings.HasPrefix(returnURL, "/\\") {
		return "/"
	}
	return returnURL
}

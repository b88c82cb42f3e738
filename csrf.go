package admission

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
)

// Default names for the two token carriers.
const (
	DefaultCSRFHeader = "X-CSRF-Token"
	DefaultCSRFCookie = "csrf_token"
)

// tokenBytes of entropy per token; hex-encoded to 2x that many characters.
const tokenBytes = 32

// Guard verifies that a state-changing request carries matching
// double-submit CSRF tokens: one in a cookie, one echoed back in a
// header. Possession of both copies is the sole authenticity proof; no
// server-side session state is kept, and token expiry is the cookie's
// business. The zero value uses the default header and cookie names.
type Guard struct {
	// Header is the request header carrying the client's copy.
	// Defaults to DefaultCSRFHeader.
	Header string
	// Cookie is the cookie carrying the issued copy.
	// Defaults to DefaultCSRFCookie.
	Cookie string
}

// GenerateToken returns 32 bytes from crypto/rand, hex-encoded.
// Predictable tokens defeat the protection entirely, so nothing weaker
// than the platform CSPRNG is acceptable here.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("admission: generating csrf token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Verify reports whether r's header and cookie tokens match. False when
// either is missing. Purely a predicate; no side effects.
func (g *Guard) Verify(r *http.Request) bool {
	header := r.Header.Get(g.headerName())
	c, err := r.Cookie(g.cookieName())
	if err != nil {
		return false
	}
	return VerifyTokens(header, c.Value)
}

// VerifyTokens is Verify for callers outside net/http (Fiber). The
// comparison is constant time so response timing cannot be used to
// recover the valid token byte by byte; the explicit length check comes
// first because the comparison primitive requires equal-length inputs.
func VerifyTokens(header, cookie string) bool {
	if header == "" || cookie == "" {
		return false
	}
	if len(header) != len(cookie) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(cookie)) == 1
}

// Issue generates a fresh token, sets it as a cookie on w, and returns
// it for the caller to expose to the front end (which echoes it in the
// header on the next mutating request). The cookie is deliberately not
// HttpOnly: the double-submit scheme requires script access.
func (g *Guard) Issue(w http.ResponseWriter) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName(),
		Value:    token,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

func (g *Guard) headerName() string {
	if g.Header != "" {
		return g.Header
	}
	return DefaultCSRFHeader
}

func (g *Guard) cookieName() string {
	if g.Cookie != "" {
		return g.Cookie
	}
	return DefaultCSRFCookie
}

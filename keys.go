package admission

import (
	"net/http"
	"strings"
)

// UnknownClient is the bucket for requests whose caller cannot be
// resolved. Clients behind a proxy that strips X-Forwarded-For all land
// here and share one quota; an accepted approximation, not a bug.
const UnknownClient = "unknown"

const keyNamespace = "rate-limit:"

// ClientID derives a stable caller identifier from request metadata:
// the first entry of X-Forwarded-For, else UnknownClient. Never fails.
func ClientID(r *http.Request) string {
	return ClientIDFromForwarded(r.Header.Get("X-Forwarded-For"))
}

// ClientIDFromForwarded is ClientID for callers that hold the raw
// X-Forwarded-For value instead of an *http.Request.
func ClientIDFromForwarded(forwarded string) string {
	if first := strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0]); first != "" {
		return first
	}
	return UnknownClient
}

// Key names the quota bucket for one (route, client) pair. Requests
// sharing a key share a quota; requests differing in route or client
// never interact.
func Key(route, client string) string {
	return keyNamespace + route + ":" + client
}

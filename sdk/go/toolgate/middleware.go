package toolgate

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Middleware returns an http.Handler that evaluates the gate on each
// request before passing to the next handler. Blocked requests receive
// a 403 with a JSON body; approval-requiring requests the same, so the
// caller can surface the approval flow out of band.
func (c *Client) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := c.Check(actionFromRequest(r))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if !result.Allowed() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"blocked":  true,
				"decision": string(result.Decision),
				"reason":   result.Reason,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// actionFromRequest maps an HTTP request to an SDK Action.
func actionFromRequest(r *http.Request) Action {
	target := r.URL.String()
	if r.URL.Host == "" && r.Host != "" {
		target = r.Host + r.URL.RequestURI()
	}
	return Action{
		Tool:    "http",
		Target:  target,
		Payload: map[string]any{"method": strings.ToLower(r.Method)},
	}
}

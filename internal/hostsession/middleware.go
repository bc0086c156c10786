package hostsession

import (
	"errors"
	"net/http"
	"strings"

	"github.com/odyssey-erp/estimator/internal/platform/httpx"
	"github.com/odyssey-erp/estimator/internal/shared"
)

// ErrNoBearer reports a request without an Authorization bearer.
var ErrNoBearer = errors.New("hostsession: no bearer token")

// BearerToken extracts the bearer credential from r.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrNoBearer
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrNoBearer
	}
	return strings.TrimSpace(token), nil
}

// Middleware resolves the bearer session into a shared.Identity. Requests
// without a bearer get the anonymous identity when allowAnonymous is set and
// 401 otherwise.
func Middleware(store *Store, allowAnonymous bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				if !allowAnonymous {
					httpx.RespondError(w, shared.ErrUnauthorized)
					return
				}
				ctx := shared.ContextWithIdentity(r.Context(), shared.Identity{Anonymous: true})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			sess, err := store.Load(r.Context(), token)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), sess.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

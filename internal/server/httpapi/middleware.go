package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/credkeeper/credkeeper/internal/common"
	"github.com/credkeeper/credkeeper/internal/server/tokens"
)

type ctxKey int

const claimsKey ctxKey = iota

// ClaimsFromContext returns the access-token claims stored by
// RequireAccessToken.
func ClaimsFromContext(ctx context.Context) (*tokens.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*tokens.Claims)
	return claims, ok
}

// RequireAccessToken verifies the bearer token and rejects anything that is
// not a valid, unexpired access token. Refresh tokens are not accepted here.
func (h *Handler) RequireAccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		claims, err := h.authority.Verify(r.Context(), strings.TrimPrefix(header, common.BearerPrefix))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if claims.Kind != tokens.KindAccess {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
)

// bearer extracts the token of an "Authorization: Bearer <token>" header.
func bearer(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// merchant authenticates the request before calling fn. The principal is
// stored in the request context.
func (h *Handler) merchant(fn handlerFunc) http.Handler {
	return h.public(func(w http.ResponseWriter, r *http.Request) error {
		raw, ok := bearer(r)
		if !ok {
			return auth.ErrUnauthenticated
		}
		p, err := h.tokens.Verify(raw)
		if err != nil {
			return err
		}
		ctx := auth.WithPrincipal(r.Context(), p)
		ctx = zctx.With(ctx, zap.String("owner_id", p.OwnerID))
		return fn(w, r.WithContext(ctx))
	})
}

// ownerID returns the authenticated merchant of r. It is only called behind
// merchant.
func ownerID(r *http.Request) string {
	p, _ := auth.FromContext(r.Context())
	return p.OwnerID
}

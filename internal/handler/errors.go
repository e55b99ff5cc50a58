package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/apperr"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindUnavailable:       http.StatusForbidden,
	apperr.KindInsufficientStock: http.StatusConflict,
	apperr.KindInvalidInput:      http.StatusBadRequest,
	apperr.KindConflict:          http.StatusConflict,
	apperr.KindUnauthenticated:   http.StatusUnauthorized,
}

// StatusOf returns the HTTP status for the kind of err.
func StatusOf(err error) int {
	if code, ok := kindStatus[apperr.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// writeError writes err as {"code","kind","message"}. Internal errors are
// logged and their details withheld.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	code := StatusOf(err)
	if code == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="storefront"`)
	}
	writeJSON(w, code, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(code)
		e.FieldStart("kind")
		e.Str(kind.String())
		e.FieldStart("message")
		e.Str(apperr.Message(err))
		e.ObjEnd()
	})
}

package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/analytics"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// visitor identifies a shopper for unique-visit estimation.
func visitor(r *http.Request) string {
	return httpmiddleware.ClientIP(r) + "|" + r.UserAgent()
}

func (h *Handler) publicStore(w http.ResponseWriter, r *http.Request) error {
	st, err := h.stores.BySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		return err
	}
	h.tracker.TrackVisit(r.Context(), st.ID, analytics.PageStore, visitor(r))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeStore(e, st, true) })
	return nil
}

func (h *Handler) publicProducts(w http.ResponseWriter, r *http.Request) error {
	page, limit, err := pageParams(r)
	if err != nil {
		return err
	}
	st, err := h.stores.BySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		return err
	}
	c, err := h.products.PublicList(r.Context(), st.ID, r.URL.Query().Get("category"), page, limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("products")
		encodeProducts(e, c.Products)
		e.FieldStart("categories")
		encodeStrings(e, c.Categories)
		encodePagination(e, c.Total, c.Page.Page, c.Limit)
		e.ObjEnd()
	})
	return nil
}

func (h *Handler) publicProduct(w http.ResponseWriter, r *http.Request) error {
	st, err := h.stores.BySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		return err
	}
	p, err := h.products.PublicGet(r.Context(), st.ID, r.PathValue("productID"))
	if err != nil {
		return err
	}
	h.tracker.TrackVisit(r.Context(), st.ID, analytics.PageProduct, visitor(r))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
	return nil
}

func (h *Handler) publicPage(w http.ResponseWriter, r *http.Request) error {
	st, p, err := h.pages.Published(r.Context(), r.PathValue("slug"), r.PathValue("pageSlug"))
	if err != nil {
		return err
	}
	h.tracker.TrackVisit(r.Context(), st.ID, analytics.PageCustom, visitor(r))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodePage(e, p) })
	return nil
}

package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/page"
)

type createPageRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Slug    string `json:"slug" validate:"required,max=100"`
	Content string `json:"content"`
	Status  string `json:"status" validate:"omitempty,oneof=draft published"`
}

func (req *createPageRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "title":
			err = readStr(d, &req.Title)
		case "slug":
			err = readStr(d, &req.Slug)
		case "content":
			err = readStr(d, &req.Content)
		case "status":
			err = readStr(d, &req.Status)
		default:
			return unknownField(key)
		}
		if err != nil {
			return fieldError(string(key), err)
		}
		return nil
	})
}

type updatePageRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=200"`
	Slug    *string `json:"slug" validate:"omitempty,min=1,max=100"`
	Content *string `json:"content"`
	Status  *string `json:"status" validate:"omitempty,oneof=draft published"`
}

func (req *updatePageRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "title":
			err = readOptStr(d, &req.Title)
		case "slug":
			err = readOptStr(d, &req.Slug)
		case "content":
			err = readOptStr(d, &req.Content)
		case "status":
			err = readOptStr(d, &req.Status)
		default:
			return unknownField(key)
		}
		if err != nil {
			return fieldError(string(key), err)
		}
		return nil
	})
}

func (req *updatePageRequest) Update() page.Update {
	u := page.Update{Title: req.Title, Slug: req.Slug, Content: req.Content}
	if req.Status != nil {
		s := page.Status(*req.Status)
		u.Status = &s
	}
	return u
}

func (h *Handler) createPage(w http.ResponseWriter, r *http.Request) error {
	var req createPageRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	p, err := h.pages.Create(r.Context(), ownerID(r), r.PathValue("storeID"), page.Draft{
		Title:   req.Title,
		Slug:    req.Slug,
		Content: req.Content,
		Status:  page.Status(req.Status),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodePage(e, p) })
	return nil
}

func (h *Handler) listPages(w http.ResponseWriter, r *http.Request) error {
	pages, err := h.pages.List(r.Context(), ownerID(r), r.PathValue("storeID"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("pages")
		e.ArrStart()
		for i := range pages {
			encodePage(e, &pages[i])
		}
		e.ArrEnd()
		e.ObjEnd()
	})
	return nil
}

func (h *Handler) getPage(w http.ResponseWriter, r *http.Request) error {
	p, err := h.pages.Get(r.Context(), ownerID(r), r.PathValue("storeID"), r.PathValue("pageID"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodePage(e, p) })
	return nil
}

func (h *Handler) updatePage(w http.ResponseWriter, r *http.Request) error {
	var req updatePageRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	p, err := h.pages.Update(r.Context(), ownerID(r), r.PathValue("storeID"), r.PathValue("pageID"), req.Update())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodePage(e, p) })
	return nil
}

func (h *Handler) deletePage(w http.ResponseWriter, r *http.Request) error {
	if err := h.pages.Delete(r.Context(), ownerID(r), r.PathValue("storeID"), r.PathValue("pageID")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

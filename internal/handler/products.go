package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/product"
)

const defaultPageSize = 20

type createProductRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Category     string          `json:"category" validate:"max=100"`
	Price        decimal.Decimal `json:"-"`
	HasPrice     bool            `json:"price" validate:"required"`
	Description  string          `json:"description"`
	Sizes        []string        `json:"sizes"`
	Colors       []string        `json:"colors"`
	Tags         []string        `json:"tags"`
	Brand        string          `json:"brand"`
	Stock        int             `json:"stock" validate:"gte=-1"`
	Availability string          `json:"availability" validate:"omitempty,oneof=show hide"`
	ThumbnailURL string          `json:"thumbnail_url"`
	ImageURLs    []string        `json:"image_urls"`
}

func (req *createProductRequest) Decode(d *jx.Decoder) error {
	req.Stock = product.UnlimitedStock
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			err = readStr(d, &req.Name)
		case "category":
			err = readStr(d, &req.Category)
		case "price":
			req.HasPrice = true
			err = readDecimal(d, &req.Price)
		case "description":
			err = readStr(d, &req.Description)
		case "sizes":
			err = readStrings(d, &req.Sizes)
		case "colors":
			err = readStrings(d, &req.Colors)
		case "tags":
			err = readStrings(d, &req.Tags)
		case "brand":
			err = readStr(d, &req.Brand)
		case "stock":
			err = readInt(d, &req.Stock)
		case "availability":
			err = readStr(d, &req.Availability)
		case "thumbnail_url":
			err = readStr(d, &req.ThumbnailURL)
		case "image_urls":
			err = readStrings(d, &req.ImageURLs)
		default:
			return unknownField(key)
		}
		if err != nil {
			return fieldError(string(key), err)
		}
		return nil
	})
}

func (req *createProductRequest) Draft() product.Draft {
	return product.Draft{
		Name:         req.Name,
		Category:     req.Category,
		Price:        req.Price,
		Description:  req.Description,
		Sizes:        req.Sizes,
		Colors:       req.Colors,
		Tags:         req.Tags,
		Brand:        req.Brand,
		Stock:        req.Stock,
		Availability: product.Availability(req.Availability),
		ThumbnailURL: req.ThumbnailURL,
		ImageURLs:    req.ImageURLs,
	}
}

type updateProductRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=200"`
	Availability *string `json:"availability" validate:"omitempty,oneof=show hide"`
	Stock        *int    `json:"stock" validate:"omitempty,gte=-1"`

	update product.Update
}

func (req *updateProductRequest) Decode(d *jx.Decoder) error {
	u := &req.update
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			err = readOptStr(d, &req.Name)
		case "category":
			err = readOptStr(d, &u.Category)
		case "price":
			err = readOptDecimal(d, &u.Price)
		case "description":
			err = readOptStr(d, &u.Description)
		case "sizes":
			err = readOptStrings(d, &u.Sizes)
		case "colors":
			err = readOptStrings(d, &u.Colors)
		case "tags":
			err = readOptStrings(d, &u.Tags)
		case "brand":
			err = readOptStr(d, &u.Brand)
		case "stock":
			err = readOptInt(d, &req.Stock)
		case "availability":
			err = readOptStr(d, &req.Availability)
		case "thumbnail_url":
			err = readOptStr(d, &u.ThumbnailURL)
		case "image_urls":
			err = readOptStrings(d, &u.ImageURLs)
		default:
			return unknownField(key)
		}
		if err != nil {
			return fieldError(string(key), err)
		}
		return nil
	})
}

func (req *updateProductRequest) Update() product.Update {
	u := req.update
	u.Name = req.Name
	u.Stock = req.Stock
	if req.Availability != nil {
		av := product.Availability(*req.Availability)
		u.Availability = &av
	}
	return u
}

// pageParams reads the page and limit query parameters.
func pageParams(r *http.Request) (page, limit int, err error) {
	q := r.URL.Query()
	if page, err = queryInt(q.Get("page"), 1, "page"); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(q.Get("limit"), defaultPageSize, "limit"); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func queryInt(raw string, def int, name string) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, apperr.InvalidInput("%s must be a positive integer", name)
	}
	return v, nil
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) error {
	var req createProductRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	p, err := h.products.Create(r.Context(), ownerID(r), r.PathValue("storeID"), req.Draft())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeProduct(e, p) })
	return nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) error {
	page, limit, err := pageParams(r)
	if err != nil {
		return err
	}
	q := r.URL.Query()
	av := product.Availability(q.Get("availability"))
	if av != "" && av != product.AvailabilityShow && av != product.AvailabilityHide {
		return apperr.InvalidInput("availability must be show or hide")
	}
	res, err := h.products.List(r.Context(), ownerID(r), product.Filter{
		StoreID:      r.PathValue("storeID"),
		Search:       q.Get("search"),
		Category:     q.Get("category"),
		Availability: av,
		Limit:        limit,
	}, page)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("products")
		encodeProducts(e, res.Products)
		encodePagination(e, res.Total, res.Page, res.Limit)
		e.ObjEnd()
	})
	return nil
}

func encodeProducts(e *jx.Encoder, products []product.Product) {
	e.ArrStart()
	for i := range products {
		encodeProduct(e, &products[i])
	}
	e.ArrEnd()
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) error {
	p, err := h.products.Get(r.Context(), ownerID(r), r.PathValue("storeID"), r.PathValue("productID"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
	return nil
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) error {
	var req updateProductRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	p, err := h.products.Update(r.Context(), ownerID(r), r.PathValue("storeID"), r.PathValue("productID"), req.Update())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
	return nil
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) error {
	if err := h.products.Delete(r.Context(), ownerID(r), r.PathValue("storeID"), r.PathValue("productID")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) syncProducts(w http.ResponseWriter, r *http.Request) error {
	res, err := h.syncer.SyncOwned(r.Context(), ownerID(r), r.PathValue("storeID"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSyncResult(e, res) })
	return nil
}

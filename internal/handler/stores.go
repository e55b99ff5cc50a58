package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/analytics"
	"github.com/xenking/storefront/internal/domain/store"
)

type createStoreRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	WhatsAppNumber string `json:"whatsapp_number" validate:"required,phone"`
	Language       string `json:"language" validate:"omitempty,oneof=en hi pa hr gu"`
	Template       string `json:"template"`
	Theme          string `json:"theme"`
	Currency       string `json:"currency" validate:"omitempty,currency"`
}

func (req *createStoreRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			err = readStr(d, &req.Name)
		case "whatsapp_number":
			err = readStr(d, &req.WhatsAppNumber)
		case "language":
			err = readStr(d, &req.Language)
		case "template":
			err = readStr(d, &req.Template)
		case "theme":
			err = readStr(d, &req.Theme)
		case "currency":
			err = readStr(d, &req.Currency)
		default:
			return unknownField(key)
		}
		if err != nil {
			return fieldError(string(key), err)
		}
		return nil
	})
}

// updateStoreRequest carries a partial store change. Nested objects patch
// only the fields they contain.
type updateStoreRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	WhatsAppNumber *string `json:"whatsapp_number" validate:"omitempty,phone"`
	Language       *string `json:"language" validate:"omitempty,oneof=en hi pa hr gu"`
	Template       *string `json:"template"`
	Theme          *string `json:"theme"`
	Currency       *string `json:"currency" validate:"omitempty,currency"`
	SheetURL       *string `json:"sheet_url"`

	update store.Update
}

func (req *updateStoreRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			err = readOptStr(d, &req.Name)
		case "whatsapp_number":
			err = readOptStr(d, &req.WhatsAppNumber)
		case "language":
			err = readOptStr(d, &req.Language)
		case "template":
			err = readOptStr(d, &req.Template)
		case "theme":
			err = readOptStr(d, &req.Theme)
		case "currency":
			err = readOptStr(d, &req.Currency)
		case "sheet_url":
			err = readOptStr(d, &req.SheetURL)
		case "branding":
			req.update.Branding = new(store.BrandingUpdate)
			err = decodeBranding(d, req.update.Branding)
		case "sections":
			req.update.Sections = new(store.SectionsUpdate)
			err = decodeSections(d, req.update.Sections)
		case "shipping":
			req.update.Shipping = new(store.ShippingUpdate)
			err = decodeShipping(d, req.update.Shipping)
		case "payments":
			req.update.Payments = new(store.PaymentsUpdate)
			err = decodePayments(d, req.update.Payments)
		default:
			return unknownField(key)
		}
		if err != nil {
			return fieldError(string(key), err)
		}
		return nil
	})
}

func (req *updateStoreRequest) Update() store.Update {
	u := req.update
	u.Name = req.Name
	u.WhatsAppNumber = req.WhatsAppNumber
	if req.Language != nil {
		l := store.Language(*req.Language)
		u.Language = &l
	}
	u.Template = req.Template
	u.Theme = req.Theme
	u.Currency = req.Currency
	u.SheetURL = req.SheetURL
	return u
}

func decodeBranding(d *jx.Decoder, b *store.BrandingUpdate) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "logo_url":
			return readOptStr(d, &b.LogoURL)
		case "brand_color":
			return readOptStr(d, &b.BrandColor)
		case "banner_url":
			return readOptStr(d, &b.BannerURL)
		case "banner_text":
			return readOptStr(d, &b.BannerText)
		default:
			return unknownField(key)
		}
	})
}

func decodeSections(d *jx.Decoder, s *store.SectionsUpdate) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "header":
			return readOptBool(d, &s.Header)
		case "banner":
			return readOptBool(d, &s.Banner)
		case "products":
			return readOptBool(d, &s.Products)
		case "footer":
			return readOptBool(d, &s.Footer)
		default:
			return unknownField(key)
		}
	})
}

func decodeShipping(d *jx.Decoder, s *store.ShippingUpdate) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "pickup_enabled":
			return readOptBool(d, &s.PickupEnabled)
		case "pickup_address":
			return readOptStr(d, &s.PickupAddress)
		case "delivery_enabled":
			return readOptBool(d, &s.DeliveryEnabled)
		case "delivery_fee":
			return readOptDecimal(d, &s.DeliveryFee)
		case "delivery_zones":
			return readStrings(d, &s.DeliveryZones)
		default:
			return unknownField(key)
		}
	})
}

func decodePayments(d *jx.Decoder, p *store.PaymentsUpdate) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "cod_enabled":
			return readOptBool(d, &p.CODEnabled)
		case "paypal_enabled":
			return readOptBool(d, &p.PayPalEnabled)
		case "paypal_client_id":
			return readOptStr(d, &p.PayPalClientID)
		default:
			return unknownField(key)
		}
	})
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) error {
	var req createStoreRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	st, err := h.stores.Create(r.Context(), ownerID(r), store.CreateParams{
		Name:           req.Name,
		WhatsAppNumber: req.WhatsAppNumber,
		Language:       store.Language(req.Language),
		Template:       req.Template,
		Theme:          req.Theme,
		Currency:       req.Currency,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeStore(e, st, false) })
	return nil
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) error {
	stores, err := h.stores.List(r.Context(), ownerID(r))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("stores")
		e.ArrStart()
		for i := range stores {
			encodeStore(e, &stores[i], false)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
	return nil
}

func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) error {
	st, err := h.stores.Owned(r.Context(), ownerID(r), r.PathValue("storeID"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeStore(e, st, false) })
	return nil
}

func (h *Handler) updateStore(w http.ResponseWriter, r *http.Request) error {
	var req updateStoreRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	st, err := h.stores.Update(r.Context(), ownerID(r), r.PathValue("storeID"), req.Update())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeStore(e, st, false) })
	return nil
}

func (h *Handler) deleteStore(w http.ResponseWriter, r *http.Request) error {
	if err := h.stores.Delete(r.Context(), ownerID(r), r.PathValue("storeID")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) storeStats(w http.ResponseWriter, r *http.Request) error {
	tf, err := analytics.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		return err
	}
	stats, err := h.stats.Stats(r.Context(), ownerID(r), r.PathValue("storeID"), tf)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeStats(e, stats) })
	return nil
}

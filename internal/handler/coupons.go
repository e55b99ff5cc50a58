package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/coupon"
)

type createCouponRequest struct {
	Code           string          `json:"code" validate:"required,max=50"`
	Type           string          `json:"type" validate:"required,oneof=flat percent"`
	Value          decimal.Decimal `json:"-"`
	HasValue       bool            `json:"value" validate:"required"`
	Status         string          `json:"status" validate:"omitempty,oneof=active expired disabled"`
	StartAt        *time.Time      `json:"start_at"`
	EndAt          *time.Time      `json:"end_at"`
	UsageLimit     int             `json:"usage_limit"`
	MinOrderAmount decimal.Decimal `json:"-"`
}

func (req *createCouponRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "code":
			err = readStr(d, &req.Code)
		case "type":
			err = readStr(d, &req.Type)
		case "value":
			req.HasValue = true
			err = readDecimal(d, &req.Value)
		case "status":
			err = readStr(d, &req.Status)
		case "start_at":
			req.StartAt, err = readNullableTime(d)
		case "end_at":
			req.EndAt, err = readNullableTime(d)
		case "usage_limit":
			err = readInt(d, &req.UsageLimit)
		case "min_order_amount":
			err = readDecimal(d, &req.MinOrderAmount)
		default:
			return unknownField(key)
		}
		if err != nil {
			return fieldError(string(key), err)
		}
		return nil
	})
}

type updateCouponRequest struct {
	Type   *string `json:"type" validate:"omitempty,oneof=flat percent"`
	Status *string `json:"status" validate:"omitempty,oneof=active expired disabled"`

	update coupon.Update
}

func (req *updateCouponRequest) Decode(d *jx.Decoder) error {
	u := &req.update
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "code":
			err = readOptStr(d, &u.Code)
		case "type":
			err = readOptStr(d, &req.Type)
		case "value":
			err = readOptDecimal(d, &u.Value)
		case "status":
			err = readOptStr(d, &req.Status)
		case "start_at":
			u.StartAt, err = readNullableTime(d)
			u.ClearStartAt = err == nil && u.StartAt == nil
		case "end_at":
			u.EndAt, err = readNullableTime(d)
			u.ClearEndAt = err == nil && u.EndAt == nil
		case "usage_limit":
			err = readOptInt(d, &u.UsageLimit)
		case "min_order_amount":
			err = readOptDecimal(d, &u.MinOrderAmount)
		default:
			return unknownField(key)
		}
		if err != nil {
			return fieldError(string(key), err)
		}
		return nil
	})
}

func (req *updateCouponRequest) Update() coupon.Update {
	u := req.update
	if req.Type != nil {
		t := coupon.Type(*req.Type)
		u.Type = &t
	}
	if req.Status != nil {
		s := coupon.Status(*req.Status)
		u.Status = &s
	}
	return u
}

type validateCouponRequest struct {
	Code     string          `json:"code" validate:"required"`
	Subtotal decimal.Decimal `json:"-"`
}

func (req *validateCouponRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "code":
			err = readStr(d, &req.Code)
		case "subtotal":
			err = readDecimal(d, &req.Subtotal)
		default:
			return unknownField(key)
		}
		if err != nil {
			return fieldError(string(key), err)
		}
		return nil
	})
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) error {
	var req createCouponRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	c, err := h.coupons.Create(r.Context(), ownerID(r), r.PathValue("storeID"), coupon.Draft{
		Code:           req.Code,
		Type:           coupon.Type(req.Type),
		Value:          req.Value,
		Status:         coupon.Status(req.Status),
		StartAt:        req.StartAt,
		EndAt:          req.EndAt,
		UsageLimit:     req.UsageLimit,
		MinOrderAmount: req.MinOrderAmount,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCoupon(e, c) })
	return nil
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) error {
	coupons, err := h.coupons.List(r.Context(), ownerID(r), r.PathValue("storeID"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("coupons")
		e.ArrStart()
		for i := range coupons {
			encodeCoupon(e, &coupons[i])
		}
		e.ArrEnd()
		e.ObjEnd()
	})
	return nil
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) error {
	var req updateCouponRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	c, err := h.coupons.Update(r.Context(), ownerID(r), r.PathValue("storeID"), r.PathValue("couponID"), req.Update())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCoupon(e, c) })
	return nil
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) error {
	if err := h.coupons.Delete(r.Context(), ownerID(r), r.PathValue("storeID"), r.PathValue("couponID")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// validateCoupon lets shoppers preview a code. A rejected code is a 200 with
// valid=false.
func (h *Handler) validateCoupon(w http.ResponseWriter, r *http.Request) error {
	var req validateCouponRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	res, err := h.coupons.Validate(r.Context(), r.PathValue("storeID"), req.Code, req.Subtotal)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCouponResult(e, res) })
	return nil
}

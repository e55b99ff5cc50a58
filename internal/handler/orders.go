package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/analytics"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/pricing"
)

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=10000"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type customerRequest struct {
	Name         string            `json:"name" validate:"required,max=100"`
	Phone        string            `json:"phone" validate:"required,phone"`
	Email        string            `json:"email" validate:"omitempty,email"`
	Address      string            `json:"address" validate:"max=500"`
	CustomFields map[string]string `json:"custom_fields"`
}

type placeOrderRequest struct {
	Items          []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Customer       customerRequest    `json:"customer"`
	ShippingMethod string             `json:"shipping_method" validate:"required,oneof=pickup delivery"`
	PaymentMethod  string             `json:"payment_method" validate:"omitempty,oneof=cash paypal"`
	CouponCode     string             `json:"coupon_code" validate:"max=50"`
}

func (req *placeOrderRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "items":
			req.Items = []orderItemRequest{}
			err = d.Arr(func(d *jx.Decoder) error {
				var it orderItemRequest
				if err := it.Decode(d); err != nil {
					return err
				}
				req.Items = append(req.Items, it)
				return nil
			})
		case "customer":
			err = req.Customer.Decode(d)
		case "shipping_method":
			err = readStr(d, &req.ShippingMethod)
		case "payment_method":
			err = readStr(d, &req.PaymentMethod)
		case "coupon_code":
			err = readStr(d, &req.CouponCode)
		default:
			return unknownField(key)
		}
		if err != nil {
			return fieldError(string(key), err)
		}
		return nil
	})
}

func (it *orderItemRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "product_id":
			return readStr(d, &it.ProductID)
		case "quantity":
			return readInt(d, &it.Quantity)
		case "size":
			return readStr(d, &it.Size)
		case "color":
			return readStr(d, &it.Color)
		default:
			return unknownField(key)
		}
	})
}

func (c *customerRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "name":
			return readStr(d, &c.Name)
		case "phone":
			return readStr(d, &c.Phone)
		case "email":
			return readStr(d, &c.Email)
		case "address":
			return readStr(d, &c.Address)
		case "custom_fields":
			c.CustomFields = map[string]string{}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				v, err := d.Str()
				if err != nil {
					return err
				}
				c.CustomFields[string(key)] = v
				return nil
			})
		default:
			return unknownField(key)
		}
	})
}

func (req *placeOrderRequest) domain(storeID string) order.PlaceOrderRequest {
	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		}
	}
	pm := order.PaymentMethod(req.PaymentMethod)
	if pm == "" {
		pm = order.PaymentCash
	}
	return order.PlaceOrderRequest{
		StoreID: storeID,
		Items:   items,
		Customer: order.Customer{
			Name:         req.Customer.Name,
			Phone:        req.Customer.Phone,
			Email:        req.Customer.Email,
			Address:      req.Customer.Address,
			CustomFields: req.Customer.CustomFields,
		},
		ShippingMethod: pricing.ShippingMethod(req.ShippingMethod),
		PaymentMethod:  pm,
		CouponCode:     req.CouponCode,
	}
}

type updateOrderRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
}

func (req *updateOrderRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "status":
			err = readOptStr(d, &req.Status)
		case "payment_status":
			err = readOptStr(d, &req.PaymentStatus)
		default:
			return unknownField(key)
		}
		if err != nil {
			return fieldError(string(key), err)
		}
		return nil
	})
}

func (req *updateOrderRequest) Update() order.Update {
	var u order.Update
	if req.Status != nil {
		s := order.Status(*req.Status)
		u.Status = &s
	}
	if req.PaymentStatus != nil {
		ps := order.PaymentStatus(*req.PaymentStatus)
		u.PaymentStatus = &ps
	}
	return u
}

// placeOrder is the public checkout. The response carries the WhatsApp link
// the shopper is redirected to.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) error {
	var req placeOrderRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	res, err := h.orders.PlaceOrder(r.Context(), req.domain(r.PathValue("storeID")))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("order")
		encodeOrder(e, res.Order)
		field(e, "whatsapp_url", res.WhatsAppURL)
		field(e, "message", res.Order.Message)
		if res.Coupon != nil {
			e.FieldStart("coupon")
			encodeCouponResult(e, *res.Coupon)
		}
		e.ObjEnd()
	})
	return nil
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) error {
	page, limit, err := pageParams(r)
	if err != nil {
		return err
	}
	status := order.Status(r.URL.Query().Get("status"))
	res, err := h.orders.List(r.Context(), ownerID(r), r.PathValue("storeID"), status, page, limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orders")
		e.ArrStart()
		for i := range res.Orders {
			encodeOrder(e, &res.Orders[i])
		}
		e.ArrEnd()
		encodePagination(e, res.Total, res.Page, res.Limit)
		e.ObjEnd()
	})
	return nil
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) error {
	o, err := h.orders.Get(r.Context(), ownerID(r), r.PathValue("storeID"), r.PathValue("orderID"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
	return nil
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) error {
	var req updateOrderRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	o, err := h.orders.Update(r.Context(), ownerID(r), r.PathValue("storeID"), r.PathValue("orderID"), req.Update())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
	return nil
}

func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) error {
	t, err := h.orders.Track(r.Context(), r.PathValue("token"))
	if err != nil {
		return err
	}
	h.tracker.TrackVisit(r.Context(), t.StoreID, analytics.PageOrderTracking, visitor(r))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeTracking(e, t) })
	return nil
}

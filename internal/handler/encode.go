package handler

import (
	"maps"
	"slices"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/analytics"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/page"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/sheet"
	"github.com/xenking/storefront/internal/domain/store"
)

func field(e *jx.Encoder, name, v string) {
	e.FieldStart(name)
	e.Str(v)
}

func boolField(e *jx.Encoder, name string, v bool) {
	e.FieldStart(name)
	e.Bool(v)
}

// encodeStore writes s. The public view omits ownership, plan limits and
// sheet settings.
func encodeStore(e *jx.Encoder, s *store.Store, public bool) {
	e.ObjStart()
	field(e, "id", s.ID)
	if !public {
		field(e, "owner_id", s.OwnerID)
	}
	field(e, "name", s.Name)
	field(e, "slug", s.Slug)
	field(e, "whatsapp_number", s.WhatsAppNumber)
	field(e, "language", string(s.Language))
	field(e, "template", s.Template)
	field(e, "theme", s.Theme)
	field(e, "currency", s.Currency)

	e.FieldStart("branding")
	e.ObjStart()
	field(e, "logo_url", s.Branding.LogoURL)
	field(e, "brand_color", s.Branding.BrandColor)
	field(e, "banner_url", s.Branding.BannerURL)
	field(e, "banner_text", s.Branding.BannerText)
	e.ObjEnd()

	e.FieldStart("sections")
	e.ObjStart()
	boolField(e, "header", s.Sections.Header)
	boolField(e, "banner", s.Sections.Banner)
	boolField(e, "products", s.Sections.Products)
	boolField(e, "footer", s.Sections.Footer)
	e.ObjEnd()

	e.FieldStart("shipping")
	e.ObjStart()
	boolField(e, "pickup_enabled", s.Shipping.PickupEnabled)
	field(e, "pickup_address", s.Shipping.PickupAddress)
	boolField(e, "delivery_enabled", s.Shipping.DeliveryEnabled)
	e.FieldStart("delivery_fee")
	encodeMoney(e, s.Shipping.DeliveryFee)
	e.FieldStart("delivery_zones")
	encodeStrings(e, s.Shipping.DeliveryZones)
	e.ObjEnd()

	e.FieldStart("payments")
	e.ObjStart()
	boolField(e, "cod_enabled", s.Payments.CODEnabled)
	boolField(e, "paypal_enabled", s.Payments.PayPalEnabled)
	field(e, "paypal_client_id", s.Payments.PayPalClientID)
	e.ObjEnd()

	e.FieldStart("premium")
	e.ObjStart()
	if public {
		boolField(e, "branding_removal", s.Premium.BrandingRemoval)
	} else {
		field(e, "plan", string(s.Premium.Plan))
		boolField(e, "coupons_enabled", s.Premium.AllowsCoupons())
		boolField(e, "custom_pages_enabled", s.Premium.AllowsPages())
		boolField(e, "branding_removal", s.Premium.BrandingRemoval)
		e.FieldStart("product_limit")
		e.Int(s.Premium.Limit())
	}
	e.ObjEnd()

	if !public {
		e.FieldStart("sheets")
		e.ObjStart()
		field(e, "sheet_url", s.Sheets.SheetURL)
		field(e, "sheet_id", s.Sheets.SheetID)
		e.FieldStart("last_synced_at")
		encodeOptTime(e, s.Sheets.LastSyncedAt)
		field(e, "sync_status", string(s.Sheets.SyncStatus))
		field(e, "sync_error", s.Sheets.SyncError)
		e.ObjEnd()

		e.FieldStart("created_at")
		encodeTime(e, s.CreatedAt)
		e.FieldStart("updated_at")
		encodeTime(e, s.UpdatedAt)
	}
	e.ObjEnd()
}

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.ObjStart()
	field(e, "id", p.ID)
	field(e, "store_id", p.StoreID)
	field(e, "name", p.Name)
	field(e, "category", p.Category)
	e.FieldStart("price")
	encodeMoney(e, p.Price)
	field(e, "description", p.Description)
	e.FieldStart("sizes")
	encodeStrings(e, p.Sizes)
	e.FieldStart("colors")
	encodeStrings(e, p.Colors)
	e.FieldStart("tags")
	encodeStrings(e, p.Tags)
	field(e, "brand", p.Brand)
	e.FieldStart("stock")
	e.Int(p.Stock)
	field(e, "availability", string(p.Availability))
	field(e, "thumbnail_url", p.ThumbnailURL)
	e.FieldStart("image_urls")
	encodeStrings(e, p.ImageURLs)
	e.FieldStart("sheet_row_index")
	if p.SheetRowIndex != nil {
		e.Int(*p.SheetRowIndex)
	} else {
		e.Null()
	}
	field(e, "last_updated_source", string(p.LastUpdatedSource))
	e.FieldStart("created_at")
	encodeTime(e, p.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, p.UpdatedAt)
	e.ObjEnd()
}

func encodePagination(e *jx.Encoder, total, page, limit int) {
	e.FieldStart("pagination")
	e.ObjStart()
	e.FieldStart("total")
	e.Int(total)
	e.FieldStart("page")
	e.Int(page)
	e.FieldStart("limit")
	e.Int(limit)
	e.FieldStart("pages")
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	e.Int(pages)
	e.ObjEnd()
}

func encodeItems(e *jx.Encoder, items []order.Item) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		field(e, "product_id", it.ProductID)
		field(e, "name", it.Name)
		e.FieldStart("unit_price")
		encodeMoney(e, it.UnitPrice)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		field(e, "size", it.Size)
		field(e, "color", it.Color)
		e.FieldStart("line_total")
		encodeMoney(e, it.LineTotal)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	field(e, "id", o.ID)
	field(e, "store_id", o.StoreID)
	field(e, "order_number", o.OrderNumber)

	e.FieldStart("customer")
	e.ObjStart()
	field(e, "name", o.Customer.Name)
	field(e, "phone", o.Customer.Phone)
	field(e, "email", o.Customer.Email)
	field(e, "address", o.Customer.Address)
	e.FieldStart("custom_fields")
	e.ObjStart()
	for _, k := range sortedKeys(o.Customer.CustomFields) {
		field(e, k, o.Customer.CustomFields[k])
	}
	e.ObjEnd()
	e.ObjEnd()

	e.FieldStart("items")
	encodeItems(e, o.Items)
	field(e, "currency", o.Currency)
	e.FieldStart("subtotal")
	encodeMoney(e, o.Subtotal)
	field(e, "shipping_method", string(o.ShippingMethod))
	e.FieldStart("shipping_fee")
	encodeMoney(e, o.ShippingFee)
	e.FieldStart("discount_amount")
	encodeMoney(e, o.DiscountAmount)
	field(e, "coupon_code", o.CouponCode)
	e.FieldStart("total")
	encodeMoney(e, o.Total)
	field(e, "payment_method", string(o.PaymentMethod))
	field(e, "payment_status", string(o.PaymentStatus))
	field(e, "status", string(o.Status))
	field(e, "track_token", o.TrackToken)
	e.FieldStart("created_at")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, o.UpdatedAt)
	e.ObjEnd()
}

func encodeTracking(e *jx.Encoder, t *order.Tracking) {
	e.ObjStart()
	field(e, "order_number", t.OrderNumber)
	field(e, "status", string(t.Status))
	e.FieldStart("items")
	encodeItems(e, t.Items)
	e.FieldStart("total")
	encodeMoney(e, t.Total)
	field(e, "currency", t.Currency)
	e.FieldStart("created_at")
	encodeTime(e, t.CreatedAt)
	field(e, "store_name", t.StoreName)
	field(e, "store_whatsapp", t.StoreWhatsApp)
	e.ObjEnd()
}

func encodeCoupon(e *jx.Encoder, c *coupon.Coupon) {
	e.ObjStart()
	field(e, "id", c.ID)
	field(e, "store_id", c.StoreID)
	field(e, "code", c.Code)
	field(e, "type", string(c.Type))
	e.FieldStart("value")
	e.Raw([]byte(c.Value.String()))
	field(e, "status", string(c.Status))
	e.FieldStart("start_at")
	encodeOptTime(e, c.StartAt)
	e.FieldStart("end_at")
	encodeOptTime(e, c.EndAt)
	e.FieldStart("usage_limit")
	e.Int(c.UsageLimit)
	e.FieldStart("used_count")
	e.Int(c.UsedCount)
	e.FieldStart("min_order_amount")
	encodeMoney(e, c.MinOrderAmount)
	e.FieldStart("created_at")
	encodeTime(e, c.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, c.UpdatedAt)
	e.ObjEnd()
}

func encodeCouponResult(e *jx.Encoder, r coupon.Result) {
	e.ObjStart()
	boolField(e, "valid", r.Valid)
	e.FieldStart("discount")
	encodeMoney(e, r.Discount)
	field(e, "message", r.Message)
	e.ObjEnd()
}

func encodePage(e *jx.Encoder, p *page.Page) {
	e.ObjStart()
	field(e, "id", p.ID)
	field(e, "store_id", p.StoreID)
	field(e, "title", p.Title)
	field(e, "slug", p.Slug)
	field(e, "content", p.Content)
	field(e, "status", string(p.Status))
	e.FieldStart("created_at")
	encodeTime(e, p.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, p.UpdatedAt)
	e.ObjEnd()
}

func encodeStats(e *jx.Encoder, s *analytics.Stats) {
	e.ObjStart()
	field(e, "timeframe", string(s.Timeframe))
	e.FieldStart("from")
	encodeTime(e, s.From)
	e.FieldStart("to")
	encodeTime(e, s.To)
	e.FieldStart("orders_count")
	e.Int(s.OrdersCount)
	e.FieldStart("sales_total")
	encodeMoney(e, s.SalesTotal)
	e.FieldStart("total_orders")
	e.Int(s.TotalOrders)
	e.FieldStart("total_products")
	e.Int(s.TotalProducts)
	e.FieldStart("visits")
	e.Int64(s.Visits)
	e.FieldStart("unique_visitors")
	e.Int64(s.UniqueVisitors)

	e.FieldStart("top_products")
	e.ArrStart()
	for _, p := range s.TopProducts {
		e.ObjStart()
		field(e, "product_id", p.ProductID)
		field(e, "name", p.Name)
		e.FieldStart("quantity")
		e.Int(p.Quantity)
		e.FieldStart("revenue")
		encodeMoney(e, p.Revenue)
		e.FieldStart("orders")
		e.Int(p.Orders)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("revenue")
	e.ArrStart()
	for _, d := range s.Revenue {
		e.ObjStart()
		field(e, "day", d.Day.Format("2006-01-02"))
		e.FieldStart("revenue")
		encodeMoney(e, d.Revenue)
		e.FieldStart("orders")
		e.Int(d.Orders)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeSyncResult(e *jx.Encoder, r *sheet.Result) {
	e.ObjStart()
	boolField(e, "success", r.Success)
	e.FieldStart("synced")
	e.Int(r.Synced)
	e.FieldStart("skipped")
	e.Int(r.Skipped)
	e.FieldStart("errors")
	encodeStrings(e, r.Errors)
	e.ObjEnd()
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}

package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/store"
)

const (
	instrumentationName = "github.com/xenking/storefront/internal/domain/order"
	maxPlaceAttempts    = 5
	// MaxPageSize caps merchant order listings.
	MaxPageSize = 100
)

// Stores resolves the store an order belongs to.
type Stores interface {
	Get(ctx context.Context, storeID string) (*store.Store, error)
	Owned(ctx context.Context, ownerID, storeID string) (*store.Store, error)
}

// Products is the product storage used while placing orders.
type Products interface {
	GetByIDs(ctx context.Context, storeID string, ids []string) ([]product.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
}

// Coupons is the coupon storage used while placing orders.
type Coupons interface {
	FindByCode(ctx context.Context, storeID, code string) (*coupon.Coupon, error)
	ClaimUsage(ctx context.Context, id string) error
}

// MessageRenderer formats the outbound WhatsApp message for an order.
type MessageRenderer interface {
	Render(o *Order, st *store.Store) string
	DeepLink(phone, text string) string
}

// ItemRequest is one requested cart line.
type ItemRequest struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	StoreID        string
	Items          []ItemRequest
	Customer       Customer
	ShippingMethod pricing.ShippingMethod
	PaymentMethod  PaymentMethod
	CouponCode     string
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	Order       *Order
	WhatsAppURL string
	// Coupon is the verdict for the submitted code, nil when none was given.
	Coupon *coupon.Result
}

// Update is a merchant change to an order. Nil fields are left untouched.
type Update struct {
	Status        *Status
	PaymentStatus *PaymentStatus
}

// Page is one page of a merchant order listing.
type Page struct {
	Orders []Order
	Total  int
	Page   int
	Limit  int
}

// Tracking is the public view of an order.
type Tracking struct {
	StoreID       string
	OrderNumber   string
	Status        Status
	Items         []Item
	Total         decimal.Decimal
	Currency      string
	CreatedAt     time.Time
	StoreName     string
	StoreWhatsApp string
}

// Service encapsulates order placement and management.
type Service struct {
	stores   Stores
	products Products
	coupons  Coupons
	orders   Repository
	tx       Transactor
	renderer MessageRenderer

	now      func() time.Time
	newID    func() string
	newToken func() string

	tracer trace.Tracer
	placed metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithTelemetry sets the tracer and meter providers used by the service.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer(instrumentationName)
		s.placed = newPlacedCounter(mp.Meter(instrumentationName))
	}
}

func newPlacedCounter(m metric.Meter) metric.Int64Counter {
	c, err := m.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders placed through the storefront"),
	)
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

// NewService creates an order Service with the required dependencies.
func NewService(
	stores Stores,
	products Products,
	coupons Coupons,
	orders Repository,
	tx Transactor,
	renderer MessageRenderer,
	opts ...Option,
) *Service {
	s := &Service{
		stores:   stores,
		products: products,
		coupons:  coupons,
		orders:   orders,
		tx:       tx,
		renderer: renderer,
		now:      time.Now,
		newID:    uuid.NewString,
		newToken: uuid.NewString,
	}
	WithTelemetry(otel.GetTracerProvider(), otel.GetMeterProvider())(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder prices the cart, applies the coupon, persists the order and
// decrements stock in one transaction, and renders the WhatsApp message.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (_ *PlaceOrderResult, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder",
		trace.WithAttributes(attribute.String("store.id", req.StoreID)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	st, err := s.stores.Get(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}

	byID, err := s.loadProducts(ctx, st.ID, req.Items)
	if err != nil {
		return nil, err
	}
	reqs := make([]pricing.Request, len(req.Items))
	for i, it := range req.Items {
		reqs[i] = pricing.Request{
			ProductID: it.ProductID,
			Product:   byID[it.ProductID],
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		}
	}
	quote, err := pricing.Price(st.ID, reqs, req.ShippingMethod, st.Shipping.DeliveryFee)
	if err != nil {
		return nil, err
	}

	var (
		cp      *coupon.Coupon
		verdict *coupon.Result
	)
	if code := coupon.NormalizeCode(req.CouponCode); code != "" {
		cp, err = s.findCoupon(ctx, st.ID, code)
		if err != nil {
			return nil, err
		}
		res := coupon.Evaluate(cp, quote.Subtotal, s.now())
		verdict = &res
	}

	o := &Order{
		StoreID:        st.ID,
		Customer:       req.Customer,
		Items:          itemsFromQuote(quote),
		Currency:       st.Currency,
		Subtotal:       quote.Subtotal,
		ShippingMethod: req.ShippingMethod,
		ShippingFee:    quote.ShippingFee,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  PaymentPending,
	}

	for attempt := 1; ; attempt++ {
		applied, err := s.place(ctx, st, o, cp, verdict)
		if err == nil {
			verdict = applied
			break
		}
		if !errors.Is(err, ErrNumberTaken) && !errors.Is(err, ErrTokenTaken) {
			return nil, err
		}
		if attempt == maxPlaceAttempts {
			return nil, apperr.Conflict("Could not allocate an order number, please retry")
		}
		span.AddEvent("order.retry", trace.WithAttributes(attribute.Int("attempt", attempt)))
	}

	s.placed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("shipping_method", string(o.ShippingMethod)),
		attribute.Bool("coupon", o.CouponCode != ""),
	))
	span.SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.String("order.number", o.OrderNumber),
	)

	return &PlaceOrderResult{
		Order:       o,
		WhatsAppURL: s.renderer.DeepLink(st.WhatsAppNumber, o.Message),
		Coupon:      verdict,
	}, nil
}

// place runs one transactional attempt. It returns the final coupon verdict,
// which reflects a usage claim lost to a concurrent order.
func (s *Service) place(ctx context.Context, st *store.Store, o *Order, cp *coupon.Coupon, verdict *coupon.Result) (*coupon.Result, error) {
	applied := verdict
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		applied = verdict
		discount := decimal.Zero
		code := ""
		if verdict != nil && verdict.Valid {
			switch err := s.coupons.ClaimUsage(ctx, cp.ID); {
			case err == nil:
				discount, code = verdict.Discount, cp.Code
			case errors.Is(err, coupon.ErrUsageExhausted):
				applied = &coupon.Result{Discount: decimal.Zero, Message: coupon.MsgUsageExceeded}
			default:
				return errors.Wrap(err, "claim coupon")
			}
		}

		latest, err := s.orders.LatestNumber(ctx, st.ID)
		if err != nil {
			return errors.Wrap(err, "latest order number")
		}
		now := s.now().UTC()
		o.ID = s.newID()
		o.OrderNumber = NextNumber(latest)
		o.TrackToken = s.newToken()
		o.DiscountAmount = discount
		o.CouponCode = code
		o.Total = o.Subtotal.Add(o.ShippingFee).Sub(discount)
		o.Status = StatusInitiated
		o.CreatedAt, o.UpdatedAt = now, now
		o.Message = s.renderer.Render(o, st)

		if err := s.orders.Create(ctx, o); err != nil {
			if errors.Is(err, ErrNumberTaken) || errors.Is(err, ErrTokenTaken) {
				return err
			}
			return errors.Wrap(err, "create order")
		}
		if err := s.orders.TransitionStatus(ctx, o.ID, StatusInitiated, StatusSentToWhatsApp); err != nil {
			return errors.Wrap(err, "mark sent")
		}
		o.Status = StatusSentToWhatsApp

		return s.reserveStock(ctx, o.Items)
	})
	return applied, err
}

// reserveStock decrements finite stock for every product in items. Lines of
// the same product are summed so the floor applies to the whole cart.
func (s *Service) reserveStock(ctx context.Context, items []Item) error {
	qty := make(map[string]int, len(items))
	names := make(map[string]string, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := qty[it.ProductID]; !ok {
			order = append(order, it.ProductID)
		}
		qty[it.ProductID] += it.Quantity
		names[it.ProductID] = it.Name
	}
	for _, id := range order {
		ok, err := s.products.DecrementStock(ctx, id, qty[id])
		if err != nil {
			return errors.Wrap(err, "decrement stock")
		}
		if !ok {
			return &pricing.InsufficientStockError{ProductID: id, Name: names[id]}
		}
	}
	return nil
}

func (s *Service) loadProducts(ctx context.Context, storeID string, items []ItemRequest) (map[string]*product.Product, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	fetched, err := s.products.GetByIDs(ctx, storeID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]*product.Product, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = &fetched[i]
	}
	return byID, nil
}

func (s *Service) findCoupon(ctx context.Context, storeID, code string) (*coupon.Coupon, error) {
	c, err := s.coupons.FindByCode(ctx, storeID, code)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find coupon")
	}
	return c, nil
}

func itemsFromQuote(q *pricing.Quote) []Item {
	items := make([]Item, len(q.Lines))
	for i, l := range q.Lines {
		items[i] = Item{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
			LineTotal: l.LineTotal,
		}
	}
	return items
}

func validateRequest(req *PlaceOrderRequest) error {
	if len(req.Items) == 0 {
		return apperr.InvalidInput("Order must contain at least one item")
	}
	if req.Customer.Name == "" {
		return apperr.InvalidInput("Customer name is required")
	}
	if !store.ValidPhone(req.Customer.Phone) {
		return apperr.InvalidInput("Customer phone number is invalid")
	}
	if req.ShippingMethod == "" {
		req.ShippingMethod = pricing.ShippingPickup
	}
	if !req.ShippingMethod.Valid() {
		return apperr.InvalidInput("Shipping method must be pickup or delivery")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = PaymentCash
	}
	if !req.PaymentMethod.Valid() {
		return apperr.InvalidInput("Payment method must be cash or paypal")
	}
	return nil
}

// List returns a page of the store's orders, newest first.
func (s *Service) List(ctx context.Context, ownerID, storeID string, status Status, page, limit int) (*Page, error) {
	if _, err := s.stores.Owned(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperr.InvalidInput("Unknown order status %q", status)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	limit = min(limit, MaxPageSize)

	orders, total, err := s.orders.List(ctx, Filter{
		StoreID: storeID,
		Status:  status,
		Offset:  (page - 1) * limit,
		Limit:   limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return &Page{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}

// Get returns one order of a store owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, storeID, id string) (*Order, error) {
	if _, err := s.stores.Owned(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	return s.orders.Get(ctx, storeID, id)
}

// Update changes the status or payment status of an order. Status changes
// follow the order state machine and lose to concurrent changes.
func (s *Service) Update(ctx context.Context, ownerID, storeID, id string, u Update) (*Order, error) {
	if _, err := s.stores.Owned(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	if u.Status != nil && !u.Status.Valid() {
		return nil, apperr.InvalidInput("Unknown order status %q", *u.Status)
	}
	if u.PaymentStatus != nil && !u.PaymentStatus.Valid() {
		return nil, apperr.InvalidInput("Unknown payment status %q", *u.PaymentStatus)
	}

	var updated *Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.Get(ctx, storeID, id)
		if err != nil {
			return err
		}
		if u.Status != nil && *u.Status != o.Status {
			if !CanTransition(o.Status, *u.Status) {
				return apperr.InvalidInput("Cannot change order status from %s to %s", o.Status, *u.Status)
			}
			if err := s.orders.TransitionStatus(ctx, o.ID, o.Status, *u.Status); err != nil {
				if errors.Is(err, ErrStatusChanged) {
					return apperr.Conflict("Order status was changed by another request")
				}
				return errors.Wrap(err, "transition status")
			}
		}
		if u.PaymentStatus != nil && *u.PaymentStatus != o.PaymentStatus {
			if err := s.orders.SetPaymentStatus(ctx, o.ID, *u.PaymentStatus); err != nil {
				return errors.Wrap(err, "set payment status")
			}
		}
		updated, err = s.orders.Get(ctx, storeID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Track returns the public view of the order with the given track token.
func (s *Service) Track(ctx context.Context, token string) (*Tracking, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrNotFound
	}
	o, err := s.orders.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	st, err := s.stores.Get(ctx, o.StoreID)
	if err != nil {
		return nil, err
	}
	return &Tracking{
		StoreID:       o.StoreID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		Items:         o.Items,
		Total:         o.Total,
		Currency:      o.Currency,
		CreatedAt:     o.CreatedAt,
		StoreName:     st.Name,
		StoreWhatsApp: st.WhatsAppNumber,
	}, nil
}

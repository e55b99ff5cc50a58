// Package handler exposes the storefront API over net/http.
package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/analytics"
	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/page"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/sheet"
	"github.com/xenking/storefront/internal/domain/store"
)

// StoreService manages merchant stores.
type StoreService interface {
	Create(ctx context.Context, ownerID string, p store.CreateParams) (*store.Store, error)
	List(ctx context.Context, ownerID string) ([]store.Store, error)
	Owned(ctx context.Context, ownerID, storeID string) (*store.Store, error)
	BySlug(ctx context.Context, slug string) (*store.Store, error)
	Update(ctx context.Context, ownerID, storeID string, u store.Update) (*store.Store, error)
	Delete(ctx context.Context, ownerID, storeID string) error
}

// ProductService manages catalogs.
type ProductService interface {
	Create(ctx context.Context, ownerID, storeID string, d product.Draft) (*product.Product, error)
	List(ctx context.Context, ownerID string, f product.Filter, page int) (*product.Page, error)
	Get(ctx context.Context, ownerID, storeID, id string) (*product.Product, error)
	Update(ctx context.Context, ownerID, storeID, id string, u product.Update) (*product.Product, error)
	Delete(ctx context.Context, ownerID, storeID, id string) error
	PublicList(ctx context.Context, storeID, category string, page, limit int) (*product.Catalog, error)
	PublicGet(ctx context.Context, storeID, id string) (*product.Product, error)
}

// OrderService places and manages orders.
type OrderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.PlaceOrderResult, error)
	List(ctx context.Context, ownerID, storeID string, status order.Status, page, limit int) (*order.Page, error)
	Get(ctx context.Context, ownerID, storeID, id string) (*order.Order, error)
	Update(ctx context.Context, ownerID, storeID, id string, u order.Update) (*order.Order, error)
	Track(ctx context.Context, token string) (*order.Tracking, error)
}

// CouponService manages coupons and validates codes for shoppers.
type CouponService interface {
	Create(ctx context.Context, ownerID, storeID string, d coupon.Draft) (*coupon.Coupon, error)
	List(ctx context.Context, ownerID, storeID string) ([]coupon.Coupon, error)
	Update(ctx context.Context, ownerID, storeID, id string, u coupon.Update) (*coupon.Coupon, error)
	Delete(ctx context.Context, ownerID, storeID, id string) error
	Validate(ctx context.Context, storeID, code string, subtotal decimal.Decimal) (coupon.Result, error)
}

// PageService manages custom pages.
type PageService interface {
	Create(ctx context.Context, ownerID, storeID string, d page.Draft) (*page.Page, error)
	List(ctx context.Context, ownerID, storeID string) ([]page.Page, error)
	Get(ctx context.Context, ownerID, storeID, id string) (*page.Page, error)
	Update(ctx context.Context, ownerID, storeID, id string, u page.Update) (*page.Page, error)
	Delete(ctx context.Context, ownerID, storeID, id string) error
	Published(ctx context.Context, storeSlug, pageSlug string) (*store.Store, *page.Page, error)
}

// StatsService computes dashboard statistics.
type StatsService interface {
	Stats(ctx context.Context, ownerID, storeID string, tf analytics.Timeframe) (*analytics.Stats, error)
}

// Syncer imports a store's linked spreadsheet.
type Syncer interface {
	SyncOwned(ctx context.Context, ownerID, storeID string) (*sheet.Result, error)
}

// VisitTracker records storefront visits. It never fails.
type VisitTracker interface {
	TrackVisit(ctx context.Context, storeID string, pt analytics.PageType, visitor string)
}

// TokenVerifier authenticates merchant bearer tokens.
type TokenVerifier interface {
	Verify(raw string) (auth.Principal, error)
}

// Services are the dependencies of a Handler.
type Services struct {
	Stores   StoreService
	Products ProductService
	Orders   OrderService
	Coupons  CouponService
	Pages    PageService
	Stats    StatsService
	Syncer   Syncer
	Tracker  VisitTracker
	Tokens   TokenVerifier
}

// Handler serves the merchant and public API.
type Handler struct {
	stores    StoreService
	products  ProductService
	orders    OrderService
	coupons   CouponService
	pages     PageService
	stats     StatsService
	syncer    Syncer
	tracker   VisitTracker
	tokens    TokenVerifier
	validator *validator.Validate
}

// New returns a Handler backed by s.
func New(s Services) *Handler {
	return &Handler{
		stores:    s.Stores,
		products:  s.Products,
		orders:    s.Orders,
		coupons:   s.Coupons,
		pages:     s.Pages,
		stats:     s.Stats,
		syncer:    s.Syncer,
		tracker:   s.Tracker,
		tokens:    s.Tokens,
		validator: newValidator(),
	}
}

// handlerFunc is an HTTP handler whose errors are written as API errors.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (h *Handler) public(fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			writeError(w, r, err)
		}
	})
}

// Register adds every API route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	const (
		storesPath   = "/api/v1/stores"
		storePath    = storesPath + "/{storeID}"
		productsPath = storePath + "/products"
		ordersPath   = storePath + "/orders"
		couponsPath  = storePath + "/coupons"
		pagesPath    = storePath + "/pages"
		publicPath   = "/api/v1/public"
	)

	mux.Handle("POST "+storesPath, h.merchant(h.createStore))
	mux.Handle("GET "+storesPath, h.merchant(h.listStores))
	mux.Handle("GET "+storePath, h.merchant(h.getStore))
	mux.Handle("PATCH "+storePath, h.merchant(h.updateStore))
	mux.Handle("DELETE "+storePath, h.merchant(h.deleteStore))
	mux.Handle("GET "+storePath+"/stats", h.merchant(h.storeStats))

	mux.Handle("POST "+productsPath, h.merchant(h.createProduct))
	mux.Handle("GET "+productsPath, h.merchant(h.listProducts))
	mux.Handle("POST "+productsPath+"/sync", h.merchant(h.syncProducts))
	mux.Handle("GET "+productsPath+"/{productID}", h.merchant(h.getProduct))
	mux.Handle("PATCH "+productsPath+"/{productID}", h.merchant(h.updateProduct))
	mux.Handle("DELETE "+productsPath+"/{productID}", h.merchant(h.deleteProduct))

	mux.Handle("POST "+ordersPath, h.public(h.placeOrder))
	mux.Handle("GET "+ordersPath, h.merchant(h.listOrders))
	mux.Handle("GET "+ordersPath+"/{orderID}", h.merchant(h.getOrder))
	mux.Handle("PATCH "+ordersPath+"/{orderID}", h.merchant(h.updateOrder))

	mux.Handle("POST "+couponsPath, h.merchant(h.createCoupon))
	mux.Handle("GET "+couponsPath, h.merchant(h.listCoupons))
	mux.Handle("POST "+couponsPath+"/validate", h.public(h.validateCoupon))
	mux.Handle("PATCH "+couponsPath+"/{couponID}", h.merchant(h.updateCoupon))
	mux.Handle("DELETE "+couponsPath+"/{couponID}", h.merchant(h.deleteCoupon))

	mux.Handle("POST "+pagesPath, h.merchant(h.createPage))
	mux.Handle("GET "+pagesPath, h.merchant(h.listPages))
	mux.Handle("GET "+pagesPath+"/{pageID}", h.merchant(h.getPage))
	mux.Handle("PATCH "+pagesPath+"/{pageID}", h.merchant(h.updatePage))
	mux.Handle("DELETE "+pagesPath+"/{pageID}", h.merchant(h.deletePage))

	mux.Handle("GET "+publicPath+"/stores/{slug}", h.public(h.publicStore))
	mux.Handle("GET "+publicPath+"/stores/{slug}/products", h.public(h.publicProducts))
	mux.Handle("GET "+publicPath+"/stores/{slug}/products/{productID}", h.public(h.publicProduct))
	mux.Handle("GET "+publicPath+"/stores/{slug}/pages/{pageSlug}", h.public(h.publicPage))
	mux.Handle("GET "+publicPath+"/orders/{token}", h.public(h.trackOrder))
}

// Package whatsapp renders localized order messages and wa.me deep links.
package whatsapp

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/store"
)

const (
	// DefaultDomain is the storefront host suffix, as in <slug>.<domain>.
	DefaultDomain = "mywabiz.in"
	// DefaultLinkBase is the WhatsApp click-to-chat endpoint.
	DefaultLinkBase = "https://wa.me"

	dateLayout = "02/01/2006"
)

var _ order.MessageRenderer = (*Renderer)(nil)

// Renderer builds order messages for a storefront domain.
type Renderer struct {
	Domain   string
	LinkBase string
}

// NewRenderer returns a Renderer. Empty arguments select the defaults.
func NewRenderer(domain, linkBase string) *Renderer {
	if domain == "" {
		domain = DefaultDomain
	}
	if linkBase == "" {
		linkBase = DefaultLinkBase
	}
	return &Renderer{
		Domain:   domain,
		LinkBase: strings.TrimRight(linkBase, "/"),
	}
}

// Render formats o in the language of st.
func (r *Renderer) Render(o *order.Order, st *store.Store) string {
	l := labelsFor(st.Language)
	sym := CurrencySymbol(o.Currency)
	host := st.Slug + "." + r.Domain

	money := func(d decimal.Decimal) string {
		return sym + d.StringFixed(2)
	}

	var lines []string
	add := func(s ...string) {
		lines = append(lines, s...)
	}

	add(l.OrderFrom+" "+host, "")
	add(l.OrderNumber+": "+o.OrderNumber)
	add(l.Date+": "+o.CreatedAt.Format(dateLayout), "")

	name := o.Customer.Name
	if name == "" {
		name = "N/A"
	}
	add(l.Name + ": " + name)
	if o.Customer.Email != "" {
		add(l.Email + ": " + o.Customer.Email)
	}
	phone := o.Customer.Phone
	if phone == "" {
		phone = "N/A"
	}
	add(l.Phone+": "+phone, "")

	add(l.Products + ":")
	for _, it := range o.Items {
		add(itemLine(l, it))
	}
	add("")

	if o.ShippingMethod == pricing.ShippingDelivery {
		add(l.Shipping + ": " + l.Delivery)
		if o.Customer.Address != "" {
			add(l.Address + ": " + o.Customer.Address)
		}
	} else {
		add(l.Shipping + ": " + l.Pickup)
	}
	add("")

	payment := l.Cash
	if o.PaymentMethod == order.PaymentPayPal {
		payment = l.PayPal
	}
	add(l.PaymentMethod+": "+payment, "")

	add(l.Subtotal + ": " + money(o.Subtotal))
	if o.ShippingFee.IsPositive() {
		add(l.ShippingFee + ": " + money(o.ShippingFee))
	}
	if o.DiscountAmount.IsPositive() {
		line := l.Discount + ": -" + money(o.DiscountAmount)
		if o.CouponCode != "" {
			line += " (" + l.Coupon + ": " + o.CouponCode + ")"
		}
		add(line)
	}
	add(l.Total+": "+money(o.Total), "")

	add(l.TrackOrder + " https://" + host + "/orders/" + o.TrackToken)

	return strings.Join(lines, "\n")
}

func itemLine(l labels, it order.Item) string {
	var variants []string
	if it.Size != "" {
		variants = append(variants, l.Size+" - "+it.Size)
	}
	if it.Color != "" {
		variants = append(variants, l.Color+" - "+it.Color)
	}

	var b strings.Builder
	b.WriteString(strconv.Itoa(it.Quantity))
	b.WriteString(" x ")
	b.WriteString(it.Name)
	if len(variants) > 0 {
		b.WriteString(" ( ")
		b.WriteString(strings.Join(variants, ", "))
		b.WriteString(" )")
	}
	return b.String()
}

// DeepLink returns the click-to-chat URL that opens text in a chat with phone.
// Only the digits of phone are kept.
func (r *Renderer) DeepLink(phone, text string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return r.LinkBase + "/" + store.Digits(phone) + "?text=" + escaped
}

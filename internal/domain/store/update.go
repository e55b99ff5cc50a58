package store

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// Update lists every merchant-editable store field. A nil field is left
// unchanged.
type Update struct {
	Name           *string
	WhatsAppNumber *string
	Language       *Language
	Template       *string
	Theme          *string
	Currency       *string
	Branding       *BrandingUpdate
	Sections       *SectionsUpdate
	Shipping       *ShippingUpdate
	Payments       *PaymentsUpdate
	// SheetURL links a spreadsheet. An empty string unlinks it.
	SheetURL *string
}

// BrandingUpdate patches Branding.
type BrandingUpdate struct {
	LogoURL    *string
	BrandColor *string
	BannerURL  *string
	BannerText *string
}

// SectionsUpdate patches Sections.
type SectionsUpdate struct {
	Header   *bool
	Banner   *bool
	Products *bool
	Footer   *bool
}

// ShippingUpdate patches Shipping.
type ShippingUpdate struct {
	PickupEnabled   *bool
	PickupAddress   *string
	DeliveryEnabled *bool
	DeliveryFee     *decimal.Decimal
	DeliveryZones   []string
}

// PaymentsUpdate patches Payments.
type PaymentsUpdate struct {
	CODEnabled     *bool
	PayPalEnabled  *bool
	PayPalClientID *string
}

// Apply validates u and writes it onto s. On error s is left untouched.
func (u Update) Apply(s *Store) error {
	next := *s

	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" || len(name) > 100 {
			return apperr.InvalidInput("Store name must be between 1 and 100 characters")
		}
		next.Name = name
	}
	if u.WhatsAppNumber != nil {
		if !ValidPhone(*u.WhatsAppNumber) {
			return apperr.InvalidInput("Invalid WhatsApp number")
		}
		next.WhatsAppNumber = *u.WhatsAppNumber
	}
	if u.Language != nil {
		if !u.Language.Valid() {
			return apperr.InvalidInput("Unsupported language %q", *u.Language)
		}
		next.Language = *u.Language
	}
	if u.Template != nil {
		if !ValidTemplate(*u.Template) {
			return apperr.InvalidInput("Unknown template %q", *u.Template)
		}
		next.Template = *u.Template
	}
	if u.Theme != nil {
		if !ValidTheme(*u.Theme) {
			return apperr.InvalidInput("Unknown theme %q", *u.Theme)
		}
		next.Theme = *u.Theme
	}
	if u.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*u.Currency))
		if len(c) != 3 {
			return apperr.InvalidInput("Currency must be a 3-letter code")
		}
		next.Currency = c
	}
	if b := u.Branding; b != nil {
		setString(&next.Branding.LogoURL, b.LogoURL)
		setString(&next.Branding.BrandColor, b.BrandColor)
		setString(&next.Branding.BannerURL, b.BannerURL)
		setString(&next.Branding.BannerText, b.BannerText)
	}
	if sec := u.Sections; sec != nil {
		setBool(&next.Sections.Header, sec.Header)
		setBool(&next.Sections.Banner, sec.Banner)
		setBool(&next.Sections.Products, sec.Products)
		setBool(&next.Sections.Footer, sec.Footer)
	}
	if sh := u.Shipping; sh != nil {
		setBool(&next.Shipping.PickupEnabled, sh.PickupEnabled)
		setString(&next.Shipping.PickupAddress, sh.PickupAddress)
		setBool(&next.Shipping.DeliveryEnabled, sh.DeliveryEnabled)
		if sh.DeliveryFee != nil {
			if sh.DeliveryFee.IsNegative() {
				return apperr.InvalidInput("Delivery fee must not be negative")
			}
			next.Shipping.DeliveryFee = *sh.DeliveryFee
		}
		if sh.DeliveryZones != nil {
			next.Shipping.DeliveryZones = sh.DeliveryZones
		}
	}
	if p := u.Payments; p != nil {
		setBool(&next.Payments.CODEnabled, p.CODEnabled)
		setBool(&next.Payments.PayPalEnabled, p.PayPalEnabled)
		setString(&next.Payments.PayPalClientID, p.PayPalClientID)
	}
	if u.SheetURL != nil {
		url := strings.TrimSpace(*u.SheetURL)
		if url == "" {
			next.Sheets.SheetURL, next.Sheets.SheetID = "", ""
		} else {
			id, ok := ParseSheetID(url)
			if !ok {
				return apperr.InvalidInput("Invalid Google Sheets URL")
			}
			next.Sheets.SheetURL, next.Sheets.SheetID = url, id
		}
	}

	*s = next
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

// Verdict messages returned by Evaluate.
const (
	MsgInvalidCode   = "Invalid coupon code"
	MsgNotActive     = "Coupon is not active"
	MsgNotYetValid   = "Coupon is not yet valid"
	MsgExpired       = "Coupon has expired"
	MsgUsageExceeded = "Coupon usage limit reached"
	MsgApplied       = "Coupon applied successfully"
)

var hundred = decimal.NewFromInt(100)

// Result is the verdict of evaluating a coupon against a subtotal.
type Result struct {
	Valid    bool
	Discount decimal.Decimal
	Message  string
}

func rejected(msg string) Result {
	return Result{Discount: decimal.Zero, Message: msg}
}

// Evaluate checks c against subtotal at time now. It never fails: an
// unusable coupon yields a zero discount and the reason. A nil coupon is
// reported as an invalid code.
func Evaluate(c *Coupon, subtotal decimal.Decimal, now time.Time) Result {
	if c == nil {
		return rejected(MsgInvalidCode)
	}
	if c.Status != StatusActive {
		return rejected(MsgNotActive)
	}
	if c.StartAt != nil && now.Before(*c.StartAt) {
		return rejected(MsgNotYetValid)
	}
	if c.EndAt != nil && now.After(*c.EndAt) {
		return rejected(MsgExpired)
	}
	if c.UsageLimit != UnlimitedUsage && c.UsedCount >= c.UsageLimit {
		return rejected(MsgUsageExceeded)
	}
	if subtotal.LessThan(c.MinOrderAmount) {
		return rejected("Minimum order amount is " + c.MinOrderAmount.StringFixed(2))
	}

	return Result{
		Valid:    true,
		Discount: Discount(c, subtotal),
		Message:  MsgApplied,
	}
}

// Discount computes the amount c takes off subtotal, rounded to cents. Flat
// discounts never exceed the subtotal.
func Discount(c *Coupon, subtotal decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case TypeFlat:
		return decimal.Min(c.Value, subtotal)
	case TypePercent:
		return subtotal.Mul(c.Value).Div(hundred).Round(2)
	default:
		return decimal.Zero
	}
}

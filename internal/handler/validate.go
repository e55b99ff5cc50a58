package handler

import (
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/store"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return store.ValidPhone(fl.Field().String())
	})
	mustRegister(v, "currency", func(fl validator.FieldLevel) bool {
		return validCurrency(fl.Field().String())
	})
	return v
}

// mustRegister panics when tag cannot be registered. Tags are constants, so
// a failure is a programming error.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(errors.Wrapf(err, "register %q validation", tag))
	}
}

func validCurrency(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if c := s[i] | 0x20; c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// validate reports the first failed constraint of req as InvalidInput.
func (h *Handler) validate(req any) error {
	err := h.validator.Struct(req)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return errors.Wrap(err, "validate request")
	}
	return apperr.InvalidInput("%s", fieldMessage(fields[0]))
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Namespace()
	if _, rest, ok := strings.Cut(name, "."); ok {
		name = rest
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min", "gte":
		if fe.Kind() == reflect.Slice {
			return name + " must have at least " + fe.Param() + " item(s)"
		}
		return name + " must be at least " + fe.Param()
	case "max", "lte":
		return name + " must be at most " + fe.Param()
	case "oneof":
		return name + " must be one of: " + fe.Param()
	case "email":
		return name + " must be a valid email address"
	case "phone":
		return name + " must be a valid phone number"
	case "currency":
		return name + " must be a 3-letter currency code"
	default:
		return name + " is invalid"
	}
}

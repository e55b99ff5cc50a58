package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
)

const maxBodySize = 1 << 20

// request is a JSON request body decoded with jx.
type request interface {
	Decode(d *jx.Decoder) error
}

var errEmptyBody = apperr.InvalidInput("Request body is required")

// readJSON decodes the body of r into req and validates it.
func (h *Handler) readJSON(r *http.Request, req request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	switch {
	case len(body) == 0:
		return errEmptyBody
	case len(body) > maxBodySize:
		return apperr.InvalidInput("Request body is too large")
	}

	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return apperr.InvalidInput("Request body must be a JSON object")
	}
	if err := req.Decode(d); err != nil {
		if apperr.KindOf(err) == apperr.KindInvalidInput {
			return err
		}
		return apperr.InvalidInput("Malformed JSON: %s", err.Error())
	}
	if d.Next() != jx.Invalid {
		return apperr.InvalidInput("Unexpected data after JSON object")
	}
	return h.validate(req)
}

func unknownField(key []byte) error {
	return apperr.InvalidInput("Unknown field %q", string(key))
}

func fieldError(name string, err error) error {
	if apperr.KindOf(err) == apperr.KindInvalidInput {
		return err
	}
	return apperr.InvalidInput("Field %q: %s", name, err.Error())
}

// Field readers. The opt variants leave dst nil when the value is null.

func readStr(d *jx.Decoder, dst *string) error {
	v, err := d.Str()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func readOptStr(d *jx.Decoder, dst **string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	var v string
	if err := readStr(d, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func readInt(d *jx.Decoder, dst *int) error {
	v, err := d.Int()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func readOptInt(d *jx.Decoder, dst **int) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	var v int
	if err := readInt(d, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func readOptBool(d *jx.Decoder, dst **bool) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	v, err := d.Bool()
	if err != nil {
		return err
	}
	*dst = &v
	return nil
}

// readDecimal accepts a JSON number or a numeric string.
func readDecimal(d *jx.Decoder, dst *decimal.Decimal) error {
	var raw string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return err
		}
		raw = n.String()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return err
		}
		raw = s
	default:
		return apperr.InvalidInput("expected a number")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return apperr.InvalidInput("invalid number %q", raw)
	}
	*dst = v
	return nil
}

func readOptDecimal(d *jx.Decoder, dst **decimal.Decimal) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	var v decimal.Decimal
	if err := readDecimal(d, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func readStrings(d *jx.Decoder, dst *[]string) error {
	out := []string{}
	if err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	}); err != nil {
		return err
	}
	*dst = out
	return nil
}

func readOptStrings(d *jx.Decoder, dst **[]string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	var v []string
	if err := readStrings(d, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func readTime(d *jx.Decoder) (time.Time, error) {
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperr.InvalidInput("invalid RFC 3339 time %q", s)
	}
	return t.UTC(), nil
}

// readNullableTime returns nil for a JSON null.
func readNullableTime(d *jx.Decoder) (*time.Time, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := readTime(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Writers.

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeMoney(e *jx.Encoder, v decimal.Decimal) {
	e.Raw([]byte(v.StringFixed(2)))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeOptTime(e *jx.Encoder, t *time.Time) {
	if t == nil {
		e.Null()
		return
	}
	encodeTime(e, *t)
}

func encodeStrings(e *jx.Encoder, v []string) {
	e.ArrStart()
	for _, s := range v {
		e.Str(s)
	}
	e.ArrEnd()
}

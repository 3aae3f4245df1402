package engine

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one result row keyed by column name. Values are whatever the
// data source decoded: strings, integers, floats, booleans, time.Time,
// decimals, or driver.Valuer wrappers.
type Row map[string]any

var errNullValue = errors.New("unexpected NULL")

// IsNull reports whether the column is absent or holds a NULL.
func (r Row) IsNull(column string) bool {
	v, err := r.value(column)
	return err != nil || v == nil
}

func (r Row) value(column string) (any, error) {
	v, ok := r[column]
	if !ok {
		return nil, nil
	}
	return unwrapValuer(v)
}

func unwrapValuer(v any) (any, error) {
	for range 4 {
		valuer, ok := v.(driver.Valuer)
		if !ok {
			return v, nil
		}
		if _, isDecimal := v.(decimal.Decimal); isDecimal {
			return v, nil
		}
		next, err := valuer.Value()
		if err != nil {
			return nil, err
		}
		v = next
	}
	return v, nil
}

func (r Row) String(column string) (string, error) {
	s, err := r.NullableString(column)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", DecodeError(column, errNullValue)
	}
	return *s, nil
}

func (r Row) NullableString(column string) (*string, error) {
	v, err := r.value(column)
	if err != nil {
		return nil, DecodeError(column, err)
	}
	var s string
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		s = t
	case []byte:
		s = string(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case int32:
		s = strconv.FormatInt(int64(t), 10)
	case int:
		s = strconv.Itoa(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case decimal.Decimal:
		s = t.String()
	case time.Time:
		s = t.Format(time.DateOnly)
	case fmt.Stringer:
		s = t.String()
	default:
		return nil, DecodeError(column, fmt.Errorf("cannot read %T as text", v))
	}
	return &s, nil
}

func (r Row) Decimal(column string) (decimal.Decimal, error) {
	v, err := r.value(column)
	if err != nil {
		return decimal.Zero, DecodeError(column, err)
	}
	switch t := v.(type) {
	case nil:
		return decimal.Zero, DecodeError(column, errNullValue)
	case decimal.Decimal:
		return t, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, DecodeError(column, err)
		}
		return d, nil
	case []byte:
		d, err := decimal.NewFromString(strings.TrimSpace(string(t)))
		if err != nil {
			return decimal.Zero, DecodeError(column, err)
		}
		return d, nil
	case int64:
		return decimal.NewFromInt(t), nil
	case int32:
		return decimal.NewFromInt32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case float32:
		return decimal.NewFromFloat32(t), nil
	case *big.Int:
		return decimal.NewFromBigInt(t, 0), nil
	default:
		return decimal.Zero, DecodeError(column, fmt.Errorf("cannot read %T as decimal", v))
	}
}

func (r Row) Int(column string) (int64, error) {
	v, err := r.value(column)
	if err != nil {
		return 0, DecodeError(column, err)
	}
	switch t := v.(type) {
	case nil:
		return 0, DecodeError(column, errNullValue)
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, DecodeError(column, err)
		}
		return n, nil
	default:
		return 0, DecodeError(column, fmt.Errorf("cannot read %T as integer", v))
	}
}

func (r Row) Bool(column string) (bool, error) {
	v, err := r.value(column)
	if err != nil {
		return false, DecodeError(column, err)
	}
	switch t := v.(type) {
	case nil:
		return false, DecodeError(column, errNullValue)
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, DecodeError(column, err)
		}
		return b, nil
	default:
		return false, DecodeError(column, fmt.Errorf("cannot read %T as boolean", v))
	}
}

// Date returns the calendar date held by the column as midnight UTC.
func (r Row) Date(column string) (time.Time, error) {
	d, err := r.NullableDate(column)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return time.Time{}, DecodeError(column, errNullValue)
	}
	return *d, nil
}

func (r Row) NullableDate(column string) (*time.Time, error) {
	v, err := r.value(column)
	if err != nil {
		return nil, DecodeError(column, err)
	}
	var t time.Time
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t = x
	case string:
		t, err = parseDate(x)
		if err != nil {
			return nil, DecodeError(column, err)
		}
	case []byte:
		t, err = parseDate(string(x))
		if err != nil {
			return nil, DecodeError(column, err)
		}
	default:
		return nil, DecodeError(column, fmt.Errorf("cannot read %T as date", v))
	}
	d := CivilDate(t)
	return &d, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.DateOnly, time.RFC3339Nano, time.DateTime} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// CivilDate drops the clock portion of t, keeping its calendar date.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

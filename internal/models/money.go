package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Money is a decimal amount with two fraction digits, kept as text so it
// never passes through floating point on the way in.
type Money string

var moneyPattern = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

var ErrInvalidMoney = errors.New("invalid money amount")

// ParseMoney validates and normalizes s to two fraction digits.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if !moneyPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	frac = (frac + "00")[:2]
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	return Money(whole + "." + frac), nil
}

// ValidMoney reports whether s is an acceptable amount.
func ValidMoney(s string) bool {
	return moneyPattern.MatchString(strings.TrimSpace(s))
}

// MoneyFromMinor formats an amount in the smallest currency unit.
func MoneyFromMinor(minor int64) Money {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return Money(fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100))
}

// MinorUnits returns the amount in the smallest currency unit (cents).
func (m Money) MinorUnits() (int64, error) {
	s := string(m)
	if s == "" {
		return 0, nil
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	frac = (frac + "00")[:2]
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, string(m))
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, string(m))
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return v, nil
}

// Percent returns pct percent of m, rounded half up to the cent.
func (m Money) Percent(pct float64) (Money, error) {
	minor, err := m.MinorUnits()
	if err != nil {
		return "", err
	}
	basisPoints := int64(pct*100 + 0.5)
	return MoneyFromMinor((minor*basisPoints + 5000) / 10000), nil
}

func (m Money) String() string { return string(m) }

func (Money) GormDataType() string { return "decimal(10,2)" }

func (m Money) Value() (driver.Value, error) {
	if m == "" {
		return nil, nil
	}
	return string(m), nil
}

// Scan accepts the representations drivers use for decimals: text from
// postgres and mysql, numbers from sqlite.
func (m *Money) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = ""
	case string:
		return m.scanText(v)
	case []byte:
		return m.scanText(string(v))
	case int64:
		*m = MoneyFromMinor(v * 100)
	case float64:
		*m = MoneyFromMinor(int64(v*100 + 0.5))
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	return nil
}

func (m *Money) scanText(s string) error {
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

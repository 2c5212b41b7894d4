package util

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NumberLocale describes the decimal separator of a numeric column.
type NumberLocale int

const (
	DecimalPoint NumberLocale = iota // 1,234.56
	DecimalComma                     // 1.234,56
)

func (l NumberLocale) String() string {
	if l == DecimalComma {
		return "decimal-comma"
	}
	return "decimal-point"
}

// ParseLocaleFloat parses a number written with the given decimal convention.
// Currency symbols and spaces are ignored. Thousands separators are accepted only
// in groups of three, so "12,5" is rejected under DecimalPoint rather than read
// as 125.
func ParseLocaleFloat(s string, locale NumberLocale) (float64, bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ' ', '\u00a0', '\'':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	dec, thou := ".", ","
	if locale == DecimalComma {
		dec, thou = ",", "."
	}
	intPart, frac, _ := strings.Cut(s, dec)
	if strings.Contains(frac, thou) || strings.Contains(frac, dec) {
		return 0, false
	}
	if strings.Contains(intPart, thou) {
		groups := strings.Split(strings.TrimLeft(intPart, "+-"), thou)
		if len(groups[0]) == 0 || len(groups[0]) > 3 {
			return 0, false
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return 0, false
			}
		}
		intPart = strings.ReplaceAll(intPart, thou, "")
	}
	num := intPart
	if frac != "" {
		num += "." + frac
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FinitePtr returns &v, or nil when v is NaN or infinite. JSON cannot carry
// NaN, so undefined estimates travel as null.
func FinitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Deref returns *p, or NaN for nil.
func Deref(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// Round rounds half away from zero to places decimals. Non-finite values pass through.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// RoundPtr rounds a finite value and returns nil otherwise.
func RoundPtr(v float64, places int32) *float64 {
	return FinitePtr(Round(v, places))
}

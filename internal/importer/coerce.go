package importer

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// parsePieces reads an integral pieces-per-carton value. Anything that is not
// a whole number in int32 range yields nil.
func parsePieces(raw string) *int32 {
	d, ok := parseDecimal(raw)
	if !ok || !d.IsInteger() {
		return nil
	}
	if d.LessThan(decimal.NewFromInt(math.MinInt32)) || d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return nil
	}
	n := int32(d.IntPart())
	return &n
}

// parsePrice reads a decimal price; unparsable input is a null price.
func parsePrice(raw string) decimal.NullDecimal {
	d, ok := parseDecimal(raw)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// parseDecimal accepts "1890.5", "1890,5", "1.890,50", "1,890.50" and
// surrounding currency symbols such as "R$ 1.890,50".
//
// When both separators appear, the last one is the decimal point and the
// other groups thousands. A lone separator is always the decimal point, so
// "1,890" and "1.890" both read as 1.89, never 1890. A separator repeated
// without the other ("1.234.567") is rejected.
func parseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimPrefix(s, "US$")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		// Comma is the decimal separator; dots group thousands.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot > lastComma && lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

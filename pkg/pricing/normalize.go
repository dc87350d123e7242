// Package pricing turns catalog price representations into integer rupee amounts.
package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MinorUnitsPerRupee is the paise multiplier the payment gateway expects.
const MinorUnitsPerRupee int64 = 100

// Normalize strips every non-digit from v and parses what is left as a
// base-10 integer. Nil, empty, digit-free and overflowing input yield 0.
// It never panics and never returns an error.
func Normalize(v any) int64 {
	switch value := v.(type) {
	case nil:
		return 0
	case string:
		return parseDigits(value)
	case []byte:
		return parseDigits(string(value))
	case json.Number:
		return parseDigits(value.String())
	case int:
		return parseDigits(strconv.FormatInt(int64(value), 10))
	case int8:
		return parseDigits(strconv.FormatInt(int64(value), 10))
	case int16:
		return parseDigits(strconv.FormatInt(int64(value), 10))
	case int32:
		return parseDigits(strconv.FormatInt(int64(value), 10))
	case int64:
		return parseDigits(strconv.FormatInt(value, 10))
	case uint:
		return parseDigits(strconv.FormatUint(uint64(value), 10))
	case uint8:
		return parseDigits(strconv.FormatUint(uint64(value), 10))
	case uint16:
		return parseDigits(strconv.FormatUint(uint64(value), 10))
	case uint32:
		return parseDigits(strconv.FormatUint(uint64(value), 10))
	case uint64:
		return parseDigits(strconv.FormatUint(value, 10))
	case float32:
		return parseDigits(strconv.FormatFloat(float64(value), 'f', -1, 32))
	case float64:
		return parseDigits(strconv.FormatFloat(value, 'f', -1, 64))
	case fmt.Stringer:
		return parseDigits(safeString(value))
	default:
		return parseDigits(fmt.Sprint(value))
	}
}

// ToMinorUnits converts a rupee amount into paise.
func ToMinorUnits(amount int64) int64 {
	return amount * MinorUnitsPerRupee
}

// Format renders an amount the way the storefront displays prices.
func Format(amount int64) string {
	return "₹" + strconv.FormatInt(amount, 10)
}

func parseDigits(raw string) int64 {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func safeString(s fmt.Stringer) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()
	return s.String()
}

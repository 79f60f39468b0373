package order

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a lenient JSON number for form input. Numbers and numeric strings are
// accepted; null, empty strings and anything unparsable decode to 0 without error.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		*n = Number(ParseAmount(s))
		return nil
	}
	*n = Number(ParseAmount(string(data)))
	return nil
}

func (n Number) Float64() float64 {
	return finite(float64(n))
}

const (
	// MaxQuantity is the largest quantity an item row can hold.
	MaxQuantity = math.MaxInt32
	// MaxAmount bounds a unit price, tax or shipping cost.
	MaxAmount = 1e9
)

// Int truncates toward zero and clamps to the int32 range.
func (n Number) Int() int {
	v := math.Trunc(n.Float64())
	switch {
	case v > MaxQuantity:
		return MaxQuantity
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

// ParseAmount parses a money value, coercing anything non-numeric to 0.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return finite(v)
}

// ParseQuantity parses an item quantity, coercing anything non-numeric to 0.
func ParseQuantity(s string) int {
	return Number(ParseAmount(s)).Int()
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

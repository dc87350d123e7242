package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Product is a catalog entry as served by the pharmacy backend. It is never
// mutated once decoded.
type Product struct {
	ID    LooseString `json:"id" validate:"required"`
	Name  string      `json:"name" validate:"required"`
	Desc  string      `json:"desc"`
	Price LooseString `json:"price"`
	Image string      `json:"image"`
}

// LooseString accepts either a JSON string or a JSON number. The catalog is
// seeded with numeric ids and prices that are sometimes currency strings.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}
	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		*s = LooseString(raw)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", trimmed)
	}
	*s = LooseString(num.String())
	return nil
}

func (s LooseString) String() string {
	return string(s)
}

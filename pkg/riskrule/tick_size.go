package riskrule

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

type tickSizeBand struct {
	MaxPrice int64 `json:"maxPrice"` // 0 = no limit
	Step     int64 `json:"step"`
}

// TickSizeRule validates that prices align to the instrument's tick
// schedule. Bands are ordered by MaxPrice; the first band whose MaxPrice
// covers the price (or is 0) decides the step.
type TickSizeRule struct {
	Bands []tickSizeBand
}

// NewTickSizeRuleFromFile loads the band schedule from a JSON file.
func NewTickSizeRuleFromFile(path string) (*TickSizeRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var bands []tickSizeBand
	if err := json.Unmarshal(data, &bands); err != nil {
		return nil, err
	}
	for i, band := range bands {
		if band.Step <= 0 {
			return nil, fmt.Errorf("band %d: step %d must be positive", i, band.Step)
		}
	}

	return &TickSizeRule{Bands: bands}, nil
}

func (r *TickSizeRule) Check(isBuy bool, price, qty int64) error {
	if price <= 0 {
		return fmt.Errorf("invalid price %d", price)
	}
	if qty <= 0 {
		return fmt.Errorf("invalid quantity %d", qty)
	}
	for _, band := range r.Bands {
		if band.MaxPrice == 0 || price <= band.MaxPrice {
			if band.Step <= 0 {
				return fmt.Errorf("invalid tick step %d", band.Step)
			}
			if price%band.Step != 0 {
				return fmt.Errorf("invalid tick size")
			}
			return nil
		}
	}
	return nil
}

// ToTicks converts a decimal price to integer ticks of the given size. The
// price must be an exact multiple of the tick; the book stores no floating
// point.
func ToTicks(price, tick decimal.Decimal) (int64, error) {
	if tick.Sign() <= 0 {
		return 0, fmt.Errorf("invalid tick %s", tick)
	}
	q := price.Div(tick)
	if !q.IsInteger() {
		return 0, fmt.Errorf("price %s not aligned to tick %s", price, tick)
	}
	return q.IntPart(), nil
}

// FromTicks converts integer ticks back to a decimal price.
func FromTicks(ticks int64, tick decimal.Decimal) decimal.Decimal {
	return tick.Mul(decimal.NewFromInt(ticks))
}

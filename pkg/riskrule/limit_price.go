package riskrule

import "fmt"

// LimitPriceRule rejects prices outside the instrument's daily band.
type LimitPriceRule struct {
	Ceil  int64
	Floor int64
}

func (r *LimitPriceRule) Check(isBuy bool, price, qty int64) error {
	if price > r.Ceil || price < r.Floor {
		return fmt.Errorf("price limit violation")
	}
	return nil
}

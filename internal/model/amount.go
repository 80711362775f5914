package model

import (
	"math"
	"strconv"
)

// Amount is an annual money figure with its monthly view. Monthly is always
// derived from Annual so the two never drift apart.
type Amount struct {
	Annual  float64 `json:"annual"`
	Monthly float64 `json:"monthly"`
}

func NewAmount(annual float64) Amount {
	return Amount{Annual: annual, Monthly: annual / 12}
}

// Ratio is a derived ratio that may legitimately be unbounded (+Inf) when its
// denominator is zero. JSON has no infinity, so unbounded values encode as null.
type Ratio float64

func (r Ratio) Unbounded() bool {
	return math.IsInf(float64(r), 0) || math.IsNaN(float64(r))
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.Unbounded() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(r), 'g', -1, 64), nil
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Ratio(math.Inf(1))
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

package api

import (
	"github.com/shopspring/decimal"
)

// DimensionFilter is the wire form of a dimension selection.
type DimensionFilter struct {
	Type         string   `json:"type"`
	Values       []string `json:"values,omitempty"`
	ContainsText string   `json:"containsText,omitempty"`
	RangeFrom    string   `json:"rangeFrom,omitempty"`
	RangeTo      string   `json:"rangeTo,omitempty"`
}

// MeasureFilter is the wire form of a measure threshold.
type MeasureFilter struct {
	Operator string   `json:"operator,omitempty"`
	Value    *Number  `json:"value,omitempty"`
	Range    []Number `json:"range,omitempty"`
}

// Number is a decimal that encodes as a bare JSON number. It decodes from
// either a number or a numeric string. Null, empty and non-numeric input
// decode without error and leave Valid false.
type Number struct {
	decimal.Decimal
	Valid bool
}

func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d, Valid: true}
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Decimal.String()), nil
}

func (n *Number) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if string(b) == "null" || d.UnmarshalJSON(b) != nil {
		*n = Number{}
		return nil
	}
	*n = NewNumber(d)
	return nil
}

type FilterSet struct {
	Dimensions map[string]DimensionFilter `json:"dimensions"`
	Measures   map[string]MeasureFilter   `json:"measures"`
}

// Fragments is the wire form of compiled query fragments.
type Fragments struct {
	DimensionFilterRev string `json:"dimension_filter_rev"`
	DimensionFilterExp string `json:"dimension_filter_exp"`
	MeasuresFilterRev  string `json:"measures_filter_rev"`
	MeasuresFilterExp  string `json:"measures_filter_exp"`
}

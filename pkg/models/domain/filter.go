package domain

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

type DimensionKind string

const (
	DimensionAll      DimensionKind = "all"
	DimensionSingle   DimensionKind = "single"
	DimensionMultiple DimensionKind = "multiple"
	DimensionContains DimensionKind = "contains"
	DimensionRange    DimensionKind = "range"
)

// DimensionFilter is the selection made for one categorical field.
// Only the fields matching Kind are meaningful; the rest are ignored.
type DimensionFilter struct {
	Kind         DimensionKind
	Values       []string
	ContainsText string
	RangeFrom    string
	RangeTo      string
}

type MeasureOperator string

const (
	OpEquals      MeasureOperator = "="
	OpLessThan    MeasureOperator = "<"
	OpLessOrEqual MeasureOperator = "<="
	// OpBoundedOpen and OpBoundedClosed are sent as ">" and ">=" but carry a
	// [low, high] range: low is bounded with the operator itself, high with
	// "<" or "<=" respectively.
	OpBoundedOpen   MeasureOperator = ">"
	OpBoundedClosed MeasureOperator = ">="
)

// UsesRange reports whether the operator reads MeasureFilter.Range instead of Value.
func (op MeasureOperator) UsesRange() bool {
	return op == OpBoundedOpen || op == OpBoundedClosed
}

// UpperBound returns the operator closing a bounded interval.
func (op MeasureOperator) UpperBound() MeasureOperator {
	switch op {
	case OpBoundedOpen:
		return OpLessThan
	case OpBoundedClosed:
		return OpLessOrEqual
	default:
		return ""
	}
}

// Valid reports whether op is part of the supported vocabulary.
func (op MeasureOperator) Valid() bool {
	switch op {
	case OpEquals, OpLessThan, OpLessOrEqual, OpBoundedOpen, OpBoundedClosed:
		return true
	}
	return false
}

type MeasureFilter struct {
	Operator MeasureOperator
	Value    *decimal.Decimal
	Range    []decimal.Decimal
}

// FilterSet holds the filters of one chat session. It is replaced, never
// merged, when the user clears all filters.
type FilterSet struct {
	Dimensions map[string]DimensionFilter
	Measures   map[string]MeasureFilter
}

func NewFilterSet() FilterSet {
	return FilterSet{
		Dimensions: make(map[string]DimensionFilter),
		Measures:   make(map[string]MeasureFilter),
	}
}

func (fs FilterSet) IsEmpty() bool {
	return len(fs.Dimensions) == 0 && len(fs.Measures) == 0
}

// Clone returns a deep copy so callers can't mutate a session's filters.
func (fs FilterSet) Clone() FilterSet {
	out := FilterSet{
		Dimensions: make(map[string]DimensionFilter, len(fs.Dimensions)),
		Measures:   make(map[string]MeasureFilter, len(fs.Measures)),
	}
	for field, df := range fs.Dimensions {
		df.Values = slices.Clone(df.Values)
		out.Dimensions[field] = df
	}
	for key, mf := range fs.Measures {
		if mf.Value != nil {
			v := *mf.Value
			mf.Value = &v
		}
		mf.Range = slices.Clone(mf.Range)
		out.Measures[key] = mf
	}
	return out
}

// MeasureKeys returns the measure keys in sorted order.
func (fs FilterSet) MeasureKeys() []string {
	return slices.Sorted(maps.Keys(fs.Measures))
}

// CompiledQueryFragments is derived from a FilterSet and always recomputed in full.
type CompiledQueryFragments struct {
	DimensionRev string
	DimensionExp string
	MeasureRev   string
	MeasureExp   string
}

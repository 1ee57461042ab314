package filter

// Side selects which backend query a measure fragment is compiled for.
type Side string

const (
	SideRevenue Side = "rev"
	SideExpense Side = "exp"
)

// SideSet records on which sides a measure key applies.
type SideSet struct {
	Revenue bool `mapstructure:"revenue"`
	Expense bool `mapstructure:"expense"`
}

func (s SideSet) Has(side Side) bool {
	switch side {
	case SideRevenue:
		return s.Revenue
	case SideExpense:
		return s.Expense
	}
	return false
}

// MeasureTable maps measure keys to the sides they belong to and to the
// column names the backend expects.
type MeasureTable struct {
	Sides   map[string]SideSet `mapstructure:"sides"`
	Columns map[string]string  `mapstructure:"columns"`
}

func (t MeasureTable) Applies(key string, side Side) bool {
	return t.Sides[key].Has(side)
}

func (t MeasureTable) Column(key string) string {
	if col, ok := t.Columns[key]; ok && col != "" {
		return col
	}
	return key
}

// Tables bundles everything the compiler needs besides the filters.
type Tables struct {
	DimensionOrder []string     `mapstructure:"dimension_order"`
	Measures       MeasureTable `mapstructure:"measures"`
}

var DefaultDimensionOrder = []string{"node", "parent", "dept", "fund", "account"}

func DefaultMeasureTable() MeasureTable {
	return MeasureTable{
		Sides: map[string]SideSet{
			"budget":      {Revenue: true, Expense: true},
			"actual":      {Revenue: true, Expense: true},
			"variance":    {Revenue: true, Expense: true},
			"collected":   {Revenue: true},
			"encumbrance": {Expense: true},
			"available":   {Expense: true},
		},
		Columns: map[string]string{
			"budget":      "budget_amount",
			"actual":      "actual_amount",
			"variance":    "variance_amount",
			"collected":   "collected_amount",
			"encumbrance": "encumbrance_amount",
			"available":   "available_balance",
		},
	}
}

func DefaultTables() Tables {
	return Tables{
		DimensionOrder: append([]string(nil), DefaultDimensionOrder...),
		Measures:       DefaultMeasureTable(),
	}
}

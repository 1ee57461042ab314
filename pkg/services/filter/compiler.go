package filter

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/de-tools/report-assistant/pkg/models/domain"
	"github.com/rs/zerolog"
)

type SkipReason string

const (
	SkipNoSelection     SkipReason = "no selection"
	SkipEmptyText       SkipReason = "empty contains text"
	SkipOpenRange       SkipReason = "range bound missing"
	SkipNoOperator      SkipReason = "operator missing"
	SkipUnknownOperator SkipReason = "unsupported operator"
	SkipNoOperand       SkipReason = "value or range missing"
	SkipOtherSide       SkipReason = "measure does not apply to side"
)

// Skip records a filter left out of a fragment. Skips are never errors:
// half-edited filters are expected while the user is still typing.
type Skip struct {
	Field  string
	Side   Side
	Reason SkipReason
}

// Compiler turns a FilterSet into the query fragments the report backend
// appends to its own predicates.
type Compiler struct {
	tables Tables
}

func NewCompiler(tables Tables) *Compiler {
	if len(tables.DimensionOrder) == 0 {
		tables.DimensionOrder = append([]string(nil), DefaultDimensionOrder...)
	}
	if tables.Measures.Sides == nil {
		tables.Measures = DefaultMeasureTable()
	}
	return &Compiler{tables: tables}
}

func (c *Compiler) Tables() Tables {
	return c.tables
}

// Compile recomputes all four fragments. Skipped filters go to the context
// logger at debug level.
func (c *Compiler) Compile(ctx context.Context, fs domain.FilterSet) domain.CompiledQueryFragments {
	fragments, skips := c.CompileWithAudit(fs)

	logger := zerolog.Ctx(ctx)
	for _, skip := range skips {
		logger.Debug().
			Str("field", skip.Field).
			Str("side", string(skip.Side)).
			Str("reason", string(skip.Reason)).
			Msg("filter skipped")
	}
	return fragments
}

// CompileWithAudit is Compile without logging; it returns the skipped filters.
func (c *Compiler) CompileWithAudit(fs domain.FilterSet) (domain.CompiledQueryFragments, []Skip) {
	dimension, skips := compileDimensions(fs.Dimensions, c.tables.DimensionOrder)
	rev, revSkips := compileMeasures(fs.Measures, SideRevenue, c.tables.Measures)
	exp, expSkips := compileMeasures(fs.Measures, SideExpense, c.tables.Measures)

	skips = append(skips, revSkips...)
	skips = append(skips, expSkips...)

	return domain.CompiledQueryFragments{
		DimensionRev: dimension,
		DimensionExp: dimension,
		MeasureRev:   rev,
		MeasureExp:   exp,
	}, skips
}

// CompileDimensionFragment builds the " and <field> ..." chain for the
// dimension filters, visiting fields in order. Fields missing from order are
// visited afterwards in lexical order.
func CompileDimensionFragment(filters map[string]domain.DimensionFilter, order []string) string {
	fragment, _ := compileDimensions(filters, order)
	return fragment
}

// CompileMeasureFragment builds the "where ..." fragment for one side.
func CompileMeasureFragment(filters map[string]domain.MeasureFilter, side Side, table MeasureTable) string {
	fragment, _ := compileMeasures(filters, side, table)
	return fragment
}

func compileDimensions(filters map[string]domain.DimensionFilter, order []string) (string, []Skip) {
	var (
		sb    strings.Builder
		skips []Skip
	)
	for _, field := range fieldOrder(filters, order) {
		clause, reason := dimensionClause(field, filters[field])
		if reason != "" {
			skips = append(skips, Skip{Field: field, Reason: reason})
			continue
		}
		sb.WriteString(clause)
	}
	return sb.String(), skips
}

func fieldOrder(filters map[string]domain.DimensionFilter, order []string) []string {
	fields := make([]string, 0, len(filters))
	seen := make(map[string]bool, len(order))
	for _, field := range order {
		if _, ok := filters[field]; ok && !seen[field] {
			fields = append(fields, field)
		}
		seen[field] = true
	}
	var rest []string
	for field := range filters {
		if !seen[field] {
			rest = append(rest, field)
		}
	}
	slices.Sort(rest)
	return append(fields, rest...)
}

// dimensionClause returns either a clause or the reason there is none. The
// All kind and unknown kinds contribute nothing and are not reported.
func dimensionClause(field string, df domain.DimensionFilter) (string, SkipReason) {
	switch df.Kind {
	case domain.DimensionSingle:
		if len(df.Values) == 0 {
			return "", SkipNoSelection
		}
		return fmt.Sprintf(" and %s = '%s'", field, df.Values[0]), ""
	case domain.DimensionMultiple:
		if len(df.Values) == 0 {
			return "", SkipNoSelection
		}
		quoted := make([]string, len(df.Values))
		for i, v := range df.Values {
			quoted[i] = "'" + v + "'"
		}
		return fmt.Sprintf(" and %s in (%s)", field, strings.Join(quoted, ",")), ""
	case domain.DimensionContains:
		if strings.TrimSpace(df.ContainsText) == "" {
			return "", SkipEmptyText
		}
		return fmt.Sprintf(" and %s like '%%%s%%'", field, df.ContainsText), ""
	case domain.DimensionRange:
		if strings.TrimSpace(df.RangeFrom) == "" || strings.TrimSpace(df.RangeTo) == "" {
			return "", SkipOpenRange
		}
		return fmt.Sprintf(" and %s between '%s' and '%s'", field, df.RangeFrom, df.RangeTo), ""
	default:
		return "", ""
	}
}

func compileMeasures(filters map[string]domain.MeasureFilter, side Side, table MeasureTable) (string, []Skip) {
	var (
		clauses []string
		skips   []Skip
	)
	for _, key := range slices.Sorted(maps.Keys(filters)) {
		clause, reason := measureClause(key, filters[key], side, table)
		if reason != "" {
			skips = append(skips, Skip{Field: key, Side: side, Reason: reason})
			continue
		}
		clauses = append(clauses, clause)
	}
	if len(clauses) == 0 {
		return "", skips
	}
	return "where " + strings.Join(clauses, " and "), skips
}

func measureClause(key string, mf domain.MeasureFilter, side Side, table MeasureTable) (string, SkipReason) {
	if mf.Operator == "" {
		return "", SkipNoOperator
	}
	if mf.Value == nil && len(mf.Range) != 2 {
		return "", SkipNoOperand
	}
	if !table.Applies(key, side) {
		return "", SkipOtherSide
	}

	col := table.Column(key)
	switch {
	case mf.Operator.UsesRange():
		if len(mf.Range) != 2 {
			return "", SkipNoOperand
		}
		lo, hi := mf.Range[0], mf.Range[1]
		return fmt.Sprintf("%s %s %s and %s %s %s",
			col, mf.Operator, lo.String(),
			col, mf.Operator.UpperBound(), hi.String()), ""
	case mf.Operator.Valid():
		if mf.Value == nil {
			return "", SkipNoOperand
		}
		return fmt.Sprintf("%s %s %s", col, mf.Operator, mf.Value.String()), ""
	default:
		return "", SkipUnknownOperator
	}
}

package adapters

import (
	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/models/domain"
	"github.com/shopspring/decimal"
)

func MapAPIFilterSetToDomain(fs api.FilterSet) domain.FilterSet {
	out := domain.NewFilterSet()
	for field, df := range fs.Dimensions {
		out.Dimensions[field] = MapAPIDimensionFilterToDomain(df)
	}
	for key, mf := range fs.Measures {
		out.Measures[key] = MapAPIMeasureFilterToDomain(mf)
	}
	return out
}

func MapAPIDimensionFilterToDomain(df api.DimensionFilter) domain.DimensionFilter {
	return domain.DimensionFilter{
		Kind:         domain.DimensionKind(df.Type),
		Values:       append([]string(nil), df.Values...),
		ContainsText: df.ContainsText,
		RangeFrom:    df.RangeFrom,
		RangeTo:      df.RangeTo,
	}
}

func MapAPIMeasureFilterToDomain(mf api.MeasureFilter) domain.MeasureFilter {
	out := domain.MeasureFilter{Operator: domain.MeasureOperator(mf.Operator)}
	if mf.Value != nil && mf.Value.Valid {
		v := mf.Value.Decimal
		out.Value = &v
	}
	if len(mf.Range) > 0 {
		out.Range = make([]decimal.Decimal, 0, len(mf.Range))
		for _, n := range mf.Range {
			if !n.Valid {
				// A range with a missing bound has no operand yet.
				out.Range = nil
				break
			}
			out.Range = append(out.Range, n.Decimal)
		}
	}
	return out
}

func MapDomainFilterSetToAPI(fs domain.FilterSet) api.FilterSet {
	return api.FilterSet{
		Dimensions: MapDomainDimensionFiltersToAPI(fs.Dimensions),
		Measures:   MapDomainMeasureFiltersToAPI(fs.Measures),
	}
}

func MapDomainDimensionFiltersToAPI(filters map[string]domain.DimensionFilter) map[string]api.DimensionFilter {
	out := make(map[string]api.DimensionFilter, len(filters))
	for field, df := range filters {
		out[field] = api.DimensionFilter{
			Type:         string(df.Kind),
			Values:       append([]string(nil), df.Values...),
			ContainsText: df.ContainsText,
			RangeFrom:    df.RangeFrom,
			RangeTo:      df.RangeTo,
		}
	}
	return out
}

func MapDomainMeasureFiltersToAPI(filters map[string]domain.MeasureFilter) map[string]api.MeasureFilter {
	out := make(map[string]api.MeasureFilter, len(filters))
	for key, mf := range filters {
		wire := api.MeasureFilter{Operator: string(mf.Operator)}
		if mf.Value != nil {
			n := api.NewNumber(*mf.Value)
			wire.Value = &n
		}
		for _, d := range mf.Range {
			wire.Range = append(wire.Range, api.NewNumber(d))
		}
		out[key] = wire
	}
	return out
}

func MapDomainFragmentsToAPI(f domain.CompiledQueryFragments) api.Fragments {
	return api.Fragments{
		DimensionFilterRev: f.DimensionRev,
		DimensionFilterExp: f.DimensionExp,
		MeasuresFilterRev:  f.MeasureRev,
		MeasuresFilterExp:  f.MeasureExp,
	}
}

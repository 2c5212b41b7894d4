package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"PriceOpt/internal/domain/models"
)

// EnrichmentColumns are appended to the original header on export.
var EnrichmentColumns = []string{
	"category_elasticity",
	"product_elasticity",
	"relative_elasticity",
	"relative_volume",
	"price_recommendation",
	"product_role",
	"recommended_strategy",
	"optimal_price_linear",
	"optimal_demand_linear",
	"optimal_revenue_linear",
	"optimal_elasticity_linear",
}

// Format controls CSV rendering; the default matches spreadsheet locales that
// use ';' as separator and ',' as decimal mark.
type Format struct {
	Delimiter    rune
	DecimalComma bool
	Places       int32
}

func DefaultFormat() Format {
	return Format{Delimiter: ';', DecimalComma: true, Places: 4}
}

// WriteEnriched writes the original cells followed by the enrichment columns,
// one line per input row in input order.
func WriteEnriched(w io.Writer, res *models.EnrichmentResult, f Format) error {
	cw := newWriter(w, f)
	header := append(append([]string{}, res.Header...), EnrichmentColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, er := range res.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, er.Row.Cells...)
		for len(rec) < len(res.Header) {
			rec = append(rec, "")
		}
		a := er.Analysis
		if a == nil {
			a = &models.ProductAnalysis{}
		}
		rec = append(rec,
			f.ptr(a.CategoryElasticity),
			f.ptr(a.Elasticity),
			f.ptr(a.RelativeElasticity),
			f.ptr(a.RelativeVolume),
			string(a.Classification.PriceRecommendation),
			string(a.Classification.Role),
			a.Classification.Strategy,
			f.ptr(a.OptimalPriceLinear),
			f.ptr(a.OptimalDemandLinear),
			f.ptr(a.OptimalRevenueLinear),
			f.ptr(a.OptimalElasticityLinear),
		)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", er.Row.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOverall writes the metric/value overview table.
func WriteOverall(w io.Writer, s models.ReportSummary, f Format) error {
	cw := newWriter(w, f)
	rows := [][]string{
		{"metric", "value"},
		{"Products analysed", strconv.Itoa(s.ProductsAnalysed)},
		{"Products classified", strconv.Itoa(s.ProductsClassified)},
		{"Mean elasticity (abs)", f.num(s.MeanAbsElasticity, 2)},
		{"Mean relative volume", f.num(s.MeanRelativeVolume, 2)},
		{"Elastic products (|e| >= 1)", strconv.Itoa(s.Elastic)},
		{"Inelastic products (|e| < 1)", strconv.Itoa(s.Inelastic)},
		{"High volume products (v > 1)", strconv.Itoa(s.HighVolume)},
		{"Low volume products (v <= 1)", strconv.Itoa(s.LowVolume)},
	}
	for _, rc := range s.RoleCounts {
		rows = append(rows, []string{"Role: " + string(rc.Role), strconv.Itoa(rc.Count)})
	}
	for _, rc := range s.RecommendationCounts {
		rows = append(rows, []string{"Recommendation: " + string(rc.Recommendation), strconv.Itoa(rc.Count)})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// WriteRoleStats writes per-role distribution statistics.
func WriteRoleStats(w io.Writer, s models.ReportSummary, f Format) error {
	cw := newWriter(w, f)
	rows := [][]string{{
		"role", "products",
		"relative_elasticity_mean", "relative_elasticity_std", "abs_elasticity_mean",
		"relative_volume_mean", "relative_volume_std",
	}}
	for _, st := range s.RoleStats {
		rows = append(rows, []string{
			string(st.Role), strconv.Itoa(st.Products),
			f.num(st.RelativeElasticityMean, f.Places), f.num(st.RelativeElasticityStd, f.Places), f.num(st.AbsElasticityMean, f.Places),
			f.num(st.RelativeVolumeMean, f.Places), f.num(st.RelativeVolumeStd, f.Places),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write role stats: %w", err)
	}
	return nil
}

func newWriter(w io.Writer, f Format) *csv.Writer {
	cw := csv.NewWriter(w)
	if f.Delimiter != 0 {
		cw.Comma = f.Delimiter
	}
	return cw
}

func (f Format) ptr(v *float64) string {
	if v == nil {
		return ""
	}
	return f.num(*v, f.Places)
}

func (f Format) num(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	s := decimal.NewFromFloat(v).Round(places).String()
	if f.DecimalComma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

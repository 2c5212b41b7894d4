// Package report aggregates enrichment output and renders it as CSV.
package report

import (
	"math"

	"PriceOpt/internal/domain/models"
	"PriceOpt/internal/services/features"
)

// Summarize counts roles and recommendations over all products and computes
// distribution stats over the products that have both relative signals.
func Summarize(products []models.ProductAnalysis) models.ReportSummary {
	s := models.ReportSummary{ProductsAnalysed: len(products)}

	roles := make(map[models.Role]int)
	recs := make(map[models.PriceRecommendation]int)
	type acc struct{ rel, abs, vol []float64 }
	byRole := make(map[models.Role]*acc)

	var absAll, volAll []float64
	for _, p := range products {
		roles[p.Classification.Role]++
		recs[p.Classification.PriceRecommendation]++

		if p.RelativeElasticity == nil || p.RelativeVolume == nil {
			continue
		}
		rel, vol := *p.RelativeElasticity, *p.RelativeVolume
		abs := math.Abs(rel)
		s.ProductsClassified++
		absAll = append(absAll, abs)
		volAll = append(volAll, vol)
		if abs >= 1 {
			s.Elastic++
		} else {
			s.Inelastic++
		}
		if vol > 1 {
			s.HighVolume++
		} else {
			s.LowVolume++
		}

		a := byRole[p.Classification.Role]
		if a == nil {
			a = &acc{}
			byRole[p.Classification.Role] = a
		}
		a.rel = append(a.rel, rel)
		a.abs = append(a.abs, abs)
		a.vol = append(a.vol, vol)
	}

	if len(absAll) > 0 {
		s.MeanAbsElasticity, _ = features.MeanStd(absAll)
		s.MeanRelativeVolume, _ = features.MeanStd(volAll)
	}

	for _, r := range models.Roles {
		if n := roles[r]; n > 0 {
			s.RoleCounts = append(s.RoleCounts, models.RoleCount{Role: r, Count: n})
		}
		a := byRole[r]
		if a == nil {
			continue
		}
		st := models.RoleStats{Role: r, Products: len(a.rel)}
		st.RelativeElasticityMean, st.RelativeElasticityStd = features.MeanStd(a.rel)
		st.AbsElasticityMean, _ = features.MeanStd(a.abs)
		st.RelativeVolumeMean, st.RelativeVolumeStd = features.MeanStd(a.vol)
		s.RoleStats = append(s.RoleStats, st)
	}
	for _, r := range models.PriceRecommendations {
		if n := recs[r]; n > 0 {
			s.RecommendationCounts = append(s.RecommendationCounts, models.RecommendationCount{Recommendation: r, Count: n})
		}
	}
	return s
}

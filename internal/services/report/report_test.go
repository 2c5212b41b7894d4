package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"PriceOpt/internal/domain/models"
	"PriceOpt/internal/services/strategy"
)

func f(v float64) *float64 { return &v }

func product(name string, rel, vol *float64) models.ProductAnalysis {
	return models.ProductAnalysis{
		Category:           "C",
		Product:            name,
		RelativeElasticity: rel,
		RelativeVolume:     vol,
		Classification:     strategy.Classify(rel, vol),
	}
}

func TestSummarize(t *testing.T) {
	products := []models.ProductAnalysis{
		product("a", f(0.5), f(1.5)),  // profit generator, increase
		product("b", f(0.4), f(1.2)),  // profit generator, increase
		product("c", f(-2.5), f(0.5)), // value proposition, decrease sharply
		product("d", nil, f(1)),       // unclassified, hold
	}
	s := Summarize(products)

	require.Equal(t, 4, s.ProductsAnalysed)
	require.Equal(t, 3, s.ProductsClassified)
	require.Equal(t, 1, s.Elastic)
	require.Equal(t, 2, s.Inelastic)
	require.Equal(t, 2, s.HighVolume)
	require.Equal(t, 1, s.LowVolume)
	require.InDelta(t, (0.5+0.4+2.5)/3, s.MeanAbsElasticity, 1e-12)

	require.Equal(t, []models.RoleCount{
		{Role: models.ProfitGenerator, Count: 2},
		{Role: models.ValueProposition, Count: 1},
		{Role: models.Unclassified, Count: 1},
	}, s.RoleCounts)
	require.Equal(t, []models.RecommendationCount{
		{Recommendation: models.DecreaseSharply, Count: 1},
		{Recommendation: models.Hold, Count: 1},
		{Recommendation: models.Increase, Count: 2},
	}, s.RecommendationCounts)

	require.Len(t, s.RoleStats, 2)
	require.Equal(t, models.ProfitGenerator, s.RoleStats[0].Role)
	require.InDelta(t, 0.45, s.RoleStats[0].RelativeElasticityMean, 1e-12)
	require.InDelta(t, 1.35, s.RoleStats[0].RelativeVolumeMean, 1e-12)
	require.Zero(t, s.RoleStats[1].RelativeVolumeStd)
}

func TestWriteEnrichedKeepsRowOrderAndLocale(t *testing.T) {
	pa := product("Molido", f(0.5), f(1.5))
	pa.Elasticity = f(-0.75)
	pa.OptimalPriceLinear = f(25.123456)

	res := &models.EnrichmentResult{
		Header: []string{"product", "price", "quantity"},
		Rows: []models.EnrichedRow{
			{Row: models.Row{Index: 0, Cells: []string{"Molido", "4,5", "120"}}, Analysis: &pa},
			{Row: models.Row{Index: 1, Cells: []string{"Otro", "3"}}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteEnriched(&buf, res, DefaultFormat()))

	r := csv.NewReader(strings.NewReader(buf.String()))
	r.Comma = ';'
	recs, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, len(res.Header)+len(EnrichmentColumns), len(recs[0]))
	require.Equal(t, "product_elasticity", recs[0][4])

	require.Equal(t, "Molido", recs[1][0])
	require.Equal(t, "-0,75", recs[1][4])
	require.Equal(t, "Increase", recs[1][7])
	require.Equal(t, "Profit generator", recs[1][8])
	require.Equal(t, "25,1235", recs[1][10])

	require.Equal(t, "Otro", recs[2][0])
	require.Equal(t, "", recs[2][2])
	require.Equal(t, "", recs[2][4])
}

func TestWriteOverallAndRoleStats(t *testing.T) {
	s := Summarize([]models.ProductAnalysis{product("a", f(1.5), f(2)), product("b", f(0.25), f(0.5))})

	var buf bytes.Buffer
	require.NoError(t, WriteOverall(&buf, s, DefaultFormat()))
	out := buf.String()
	require.Contains(t, out, "Products analysed;2")
	require.Contains(t, out, "Mean elasticity (abs);0,88")
	require.Contains(t, out, "Role: Traffic generator;1")

	buf.Reset()
	require.NoError(t, WriteRoleStats(&buf, s, Format{Delimiter: ',', Places: 2}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Revenue stabilizer,1,0.25,0,0.25,0.5,0", lines[1])
	require.Equal(t, "Traffic generator,1,1.5,0,1.5,2,0", lines[2])
}

package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"PriceOpt/internal/domain/models"
	"PriceOpt/internal/services/elasticity"
	"PriceOpt/internal/services/features"
	"PriceOpt/internal/services/optimizer"
	"PriceOpt/internal/services/regression"
	"PriceOpt/internal/services/report"
	"PriceOpt/internal/services/strategy"
	"PriceOpt/pkg/util"
)

// AnalyzeOptions tunes AnalyzeDataset.
type AnalyzeOptions struct {
	Workers         int
	MinObservations int
	// OnProgress is called after each category with the number done so far.
	OnProgress func(done, total int)
}

type categoryRows struct {
	name     string
	obs      []models.Observation
	products []string
	byProd   map[string][]models.Observation
}

// AnalyzeDataset estimates category and product elasticities, relative signals,
// roles and linear optima. Categories run in parallel; the output keeps the
// order of the input rows.
func AnalyzeDataset(ctx context.Context, ds *models.Dataset, opts AnalyzeOptions) (*models.EnrichmentResult, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MinObservations < regression.MinPoints {
		opts.MinObservations = regression.MinPoints
	}

	cats := splitCategories(ds.Rows)
	catOut := make([]models.CategoryAnalysis, len(cats))
	prodOut := make([][]models.ProductAnalysis, len(cats))

	var done atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range cats {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			catOut[i], prodOut[i] = analyzeCategory(cats[i], opts.MinObservations)
			if opts.OnProgress != nil {
				opts.OnProgress(int(done.Add(1)), len(cats))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze dataset %s: %w", ds.ID, err)
	}

	res := &models.EnrichmentResult{
		SessionID:   ds.ID,
		Header:      ds.Header,
		Categories:  catOut,
		GeneratedAt: time.Now().UTC(),
	}
	index := make(map[string]int)
	for _, ps := range prodOut {
		for _, p := range ps {
			index[productKey(p.Category, p.Product)] = len(res.Products)
			res.Products = append(res.Products, p)
		}
	}

	res.Rows = make([]models.EnrichedRow, len(ds.Rows))
	for i, row := range ds.Rows {
		res.Rows[i] = models.EnrichedRow{Row: row}
		if j, ok := index[productKey(row.Category, row.Product)]; ok {
			res.Rows[i].Analysis = &res.Products[j]
		}
	}
	res.Summary = report.Summarize(res.Products)
	return res, nil
}

func splitCategories(rows []models.Row) []*categoryRows {
	var out []*categoryRows
	byName := make(map[string]*categoryRows)
	for _, r := range rows {
		c, ok := byName[r.Category]
		if !ok {
			c = &categoryRows{name: r.Category, byProd: make(map[string][]models.Observation)}
			byName[r.Category] = c
			out = append(out, c)
		}
		if _, seen := c.byProd[r.Product]; !seen {
			c.products = append(c.products, r.Product)
			c.byProd[r.Product] = nil
		}
		if r.Price <= 0 || r.Quantity <= 0 {
			continue
		}
		o := models.Observation{Price: r.Price, Quantity: r.Quantity}
		c.obs = append(c.obs, o)
		c.byProd[r.Product] = append(c.byProd[r.Product], o)
	}
	return out
}

func analyzeCategory(c *categoryRows, minObs int) (models.CategoryAnalysis, []models.ProductAnalysis) {
	catEst := estimateWithMinimum(c.obs, minObs)
	ca := models.CategoryAnalysis{
		Category:   c.name,
		Elasticity: util.FinitePtr(catEst.Elasticity),
		R2:         catEst.R2,
		NPoints:    catEst.NPoints,
		Products:   len(c.products),
		Warnings:   catEst.Warnings,
	}

	means := make(map[string]float64, len(c.products))
	for _, p := range c.products {
		means[p] = features.MeanQuantity(c.byProd[p])
	}
	relVol := features.RelativeVolumes(means)

	products := make([]models.ProductAnalysis, 0, len(c.products))
	for _, name := range c.products {
		obs := c.byProd[name]
		est := estimateWithMinimum(obs, minObs)

		pa := models.ProductAnalysis{
			Category:           c.name,
			Product:            name,
			NPoints:            len(obs),
			MeanQuantity:       zeroIfNaN(means[name]),
			Elasticity:         util.FinitePtr(est.Elasticity),
			R2:                 est.R2,
			CategoryElasticity: ca.Elasticity,
			Warnings:           append([]string(nil), est.Warnings...),
		}
		if rel, ok := elasticity.Relative(est.Elasticity, catEst.Elasticity); ok {
			pa.RelativeElasticity = &rel
		}
		if v, ok := relVol[name]; ok {
			pa.RelativeVolume = &v
		}
		pa.Classification = strategy.Classify(pa.RelativeElasticity, pa.RelativeVolume)

		if len(obs) >= minObs {
			lin := elasticity.EstimateLinear(obs)
			if opt := optimizer.LinearOutcome(lin.Alpha, lin.Beta); opt.Valid {
				pa.OptimalPriceLinear = util.FinitePtr(opt.Price)
				pa.OptimalDemandLinear = util.FinitePtr(opt.Demand)
				pa.OptimalRevenueLinear = util.FinitePtr(opt.Revenue)
				pa.OptimalElasticityLinear = util.FinitePtr(opt.Elasticity)
			} else {
				pa.Warnings = appendUnique(pa.Warnings, lin.Warnings...)
				pa.Warnings = appendUnique(pa.Warnings, opt.Warnings...)
			}
		}
		products = append(products, pa)
	}
	return ca, products
}

// estimateWithMinimum refuses to fit below the configured observation count.
func estimateWithMinimum(obs []models.Observation, minObs int) models.ElasticityEstimate {
	if len(obs) >= minObs {
		return elasticity.Estimate(obs)
	}
	est := elasticity.Estimate(nil)
	est.NPoints = len(obs)
	if minObs > regression.MinPoints {
		est.Warnings = []string{fmt.Sprintf("Insufficient data points (need >=%d)", minObs)}
	}
	return est
}

func appendUnique(dst []string, src ...string) []string {
	for _, s := range src {
		dup := false
		for _, d := range dst {
			if d == s {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, s)
		}
	}
	return dst
}

func productKey(category, product string) string {
	return category + "\x00" + product
}

func zeroIfNaN(v float64) float64 {
	if v != v {
		return 0
	}
	return v
}

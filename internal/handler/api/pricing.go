package api

import (
	"math"

	"github.com/labstack/echo/v4"

	"PriceOpt/internal/domain/models"
	"PriceOpt/internal/services/strategy"
	"PriceOpt/internal/usecase"
	xhttp "PriceOpt/pkg/http"
	"PriceOpt/pkg/logger"
	"PriceOpt/pkg/util"
)

// PricingHandler serves the stateless estimation endpoints.
type PricingHandler struct {
	logger  *logger.Logger
	pricing *usecase.Pricing
}

func NewPricingHandler(lgr *logger.Logger, pricing *usecase.Pricing) *PricingHandler {
	return &PricingHandler{logger: lgr, pricing: pricing}
}

func (h *PricingHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/optimize-price", h.OptimizePrice)
	g.POST("/optimize-price-linear", h.OptimizePriceLinear)
	g.POST("/elasticity/compute", h.ComputeElasticity)
	g.POST("/elasticity/compute-cross", h.ComputeCrossElasticity)
	g.POST("/classify", h.Classify)
}

func (h *PricingHandler) OptimizePrice(c echo.Context) error {
	req := &models.OptimizePriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	a := h.pricing.OptimizeConstant(req.ProductID, req.CurrentPrice, req.Cost, req.Elasticity, req.TargetMargin, req.DemandFactor)

	res := &models.OptimizePriceResponse{
		ProductID:       req.ProductID,
		CurrentPrice:    req.CurrentPrice,
		OptimalPrice:    util.Round(a.OptimalPrice, 2),
		ProfitMarginPct: util.Round(a.MarginPct, 2),
		DeltaPct:        util.Round(a.DeltaPct, 2),
		Recommendation:  a.Text,
	}
	if a.EstimatedDemand != nil {
		res.EstimatedDemand = util.RoundPtr(*a.EstimatedDemand, 4)
		res.EstimatedRevenue = util.RoundPtr(*a.EstimatedRevenue, 4)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PricingHandler) OptimizePriceLinear(c echo.Context) error {
	req := &models.LinearPriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Alpha == nil && len(req.Observations) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("observations or alpha and beta are required"))
	}
	out := h.pricing.OptimizeLinear(req.ProductID, req.CurrentPrice, req.Observations, req.Alpha, req.Beta)

	warnings := append(append([]string{}, out.Fit.Warnings...), out.Optimum.Warnings...)
	return xhttp.SuccessResponse(c, &models.LinearPriceResponse{
		ProductID:         req.ProductID,
		Alpha:             util.RoundPtr(out.Fit.Alpha, 4),
		Beta:              util.RoundPtr(out.Fit.Beta, 4),
		R2:                util.RoundPtr(out.Fit.R2, 4),
		NPoints:           out.Fit.NPoints,
		OptimalPrice:      util.RoundPtr(out.Optimum.Price, 2),
		OptimalDemand:     util.RoundPtr(out.Optimum.Demand, 4),
		OptimalRevenue:    util.RoundPtr(out.Optimum.Revenue, 2),
		OptimalElasticity: util.RoundPtr(out.Optimum.Elasticity, 4),
		Valid:             out.Optimum.Valid,
		Warnings:          warnings,
		Recommendation:    out.Advice,
	})
}

func (h *PricingHandler) ComputeElasticity(c echo.Context) error {
	req := &models.ElasticityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	est := h.pricing.Elasticity(req.ProductID, req.Observations)

	var abs *float64
	if est.Defined() {
		v := math.Abs(est.Elasticity)
		abs = &v
	}
	return xhttp.SuccessResponse(c, &models.ElasticityResponse{
		ProductID:           req.ProductID,
		Elasticity:          util.RoundPtr(est.Elasticity, 4),
		Intercept:           util.RoundPtr(est.Intercept, 4),
		DemandFactor:        util.RoundPtr(est.DemandFactor, 4),
		R2:                  util.Round(est.R2, 4),
		NPoints:             est.NPoints,
		PriceRecommendation: strategy.RecommendPrice(abs),
		Warnings:            nonNil(est.Warnings),
	})
}

func (h *PricingHandler) ComputeCrossElasticity(c echo.Context) error {
	req := &models.CrossElasticityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	est := h.pricing.CrossElasticity(req.Observations)

	return xhttp.SuccessResponse(c, &models.CrossElasticityResponse{
		ProductID:       req.ProductID,
		OwnElasticity:   util.RoundPtr(est.OwnElasticity, 4),
		CrossElasticity: util.RoundPtr(est.CrossElasticity, 4),
		Intercept:       util.RoundPtr(est.Intercept, 4),
		R2:              util.Round(est.R2, 4),
		NPoints:         est.NPoints,
		Relationship:    relationship(est.CrossElasticity),
		Warnings:        nonNil(est.Warnings),
	})
}

func (h *PricingHandler) Classify(c echo.Context) error {
	req := &models.ClassifyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.pricing.Classify(req.RelativeElasticity, req.RelativeVolume))
}

// relationship names the competitor effect: substitutes raise our demand when
// their price rises.
func relationship(cross float64) string {
	switch {
	case math.IsNaN(cross):
		return "unknown"
	case cross > 0.1:
		return "substitute"
	case cross < -0.1:
		return "complement"
	default:
		return "independent"
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

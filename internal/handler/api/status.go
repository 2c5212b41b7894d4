package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	xhttp "PriceOpt/pkg/http"
	"PriceOpt/pkg/util"
)

// Checker reports the health of one backing component.
type Checker interface {
	Health(ctx context.Context) error
}

// CheckFunc adapts a ping function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Health(ctx context.Context) error { return f(ctx) }

type StatusHandler struct {
	environment string
	sessions    domrepo.DatasetRepository
	checks      map[string]Checker
	started     time.Time
}

func NewStatusHandler(environment string, sessions domrepo.DatasetRepository, checks map[string]Checker) *StatusHandler {
	return &StatusHandler{environment: environment, sessions: sessions, checks: checks, started: time.Now()}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/health", h.Health)
	g.GET("/sessions", h.Sessions)
}

func (h *StatusHandler) Status(c echo.Context) error {
	ctx := c.Request().Context()
	res := &models.StatusResponse{
		Status:      "ok",
		Environment: h.environment,
		Uptime:      time.Since(h.started).Round(time.Second).String(),
		Components:  h.checkComponents(ctx),
		Time:        time.Now().UTC(),
	}
	if ids, err := h.sessions.ListSessions(ctx); err == nil {
		res.Sessions = len(ids)
	}
	for _, state := range res.Components {
		if state != "ok" {
			res.Status = "degraded"
		}
	}
	return xhttp.SuccessResponse(c, res)
}

// Sessions lists stored session ids, sorted, capped by ?limit (default 100).
func (h *StatusHandler) Sessions(c echo.Context) error {
	ids, err := h.sessions.ListSessions(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError(err.Error()))
	}
	sort.Strings(ids)
	total := int64(len(ids))
	if limit := util.ParseIntDefault(c.QueryParam("limit"), 100); limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return xhttp.ListResponse(c, ids, total)
}

// Health answers 503 when any component is failing.
func (h *StatusHandler) Health(c echo.Context) error {
	comps := h.checkComponents(c.Request().Context())
	for _, state := range comps {
		if state != "ok" {
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, comps)
		}
	}
	return xhttp.SuccessResponse(c, comps)
}

func (h *StatusHandler) checkComponents(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	out := make(map[string]string, len(h.checks))
	for name, chk := range h.checks {
		if err := chk.Health(ctx); err != nil {
			out[name] = err.Error()
			continue
		}
		out[name] = "ok"
	}
	return out
}

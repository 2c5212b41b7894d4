package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	domsvc "PriceOpt/internal/domain/service"
	icache "PriceOpt/internal/service/cache"
	"PriceOpt/internal/services/ingest"
	"PriceOpt/internal/services/report"
	xhttp "PriceOpt/pkg/http"
	"PriceOpt/pkg/http/middleware"
	"PriceOpt/pkg/logger"
)

const (
	groupSampleSize = 5
	exportTTL       = 10 * time.Minute
)

type DataHandlerConfig struct {
	MaxUploadBytes int64
	Format         report.Format
}

// DataHandler manages uploaded sessions: ingest, enrichment, export and reports.
type DataHandler struct {
	logger    *logger.Logger
	datasets  domsvc.DatasetService
	enricher  domsvc.Enricher
	scheduler domsvc.EnrichmentScheduler // nil disables ?async=true
	exports   icache.BytesCache
	limiter   middleware.Allower
	cfg       DataHandlerConfig
}

func NewDataHandler(
	lgr *logger.Logger,
	datasets domsvc.DatasetService,
	enricher domsvc.Enricher,
	scheduler domsvc.EnrichmentScheduler,
	exports icache.BytesCache,
	limiter middleware.Allower,
	cfg DataHandlerConfig,
) *DataHandler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.Format.Delimiter == 0 {
		cfg.Format = report.DefaultFormat()
	}
	return &DataHandler{
		logger:    lgr,
		datasets:  datasets,
		enricher:  enricher,
		scheduler: scheduler,
		exports:   exports,
		limiter:   limiter,
		cfg:       cfg,
	}
}

func (h *DataHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/data")
	g.POST("/upload", h.Upload, middleware.RateLimit(h.limiter))
	g.GET("/:session/groups", h.Groups)
	g.POST("/:session/enrich", h.Enrich)
	g.GET("/:session/export", h.Export)
	g.GET("/:session/report", h.Report)
}

func (h *DataHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_REQUIRED",
			Field:   "file",
			Message: "file is required",
		}})
	}
	if fh.Size > h.cfg.MaxUploadBytes {
		return xhttp.AppErrorResponse(c, xhttp.PayloadTooLargeError(h.cfg.MaxUploadBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("cannot open upload: %v", err))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.cfg.MaxUploadBytes+1))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("cannot read upload: %v", err))
	}
	if int64(len(data)) > h.cfg.MaxUploadBytes {
		return xhttp.AppErrorResponse(c, xhttp.PayloadTooLargeError(h.cfg.MaxUploadBytes))
	}

	ds, err := h.datasets.Upload(c.Request().Context(), c.FormValue("session_id"), data)
	if err != nil {
		return h.fail(c, "upload", "", err)
	}

	sample := make([]string, 0, groupSampleSize)
	for i := 0; i < len(ds.Groups) && i < groupSampleSize; i++ {
		sample = append(sample, ds.Groups[i].Name)
	}
	return xhttp.CreatedResponse(c, &models.UploadResponse{
		SessionID:     ds.ID,
		RowsLoaded:    len(ds.Rows),
		DroppedRows:   ds.DroppedRows,
		GroupedLevels: len(ds.Groups),
		GroupSample:   sample,
		Columns:       ds.Columns,
		Delimiter:     ds.Delimiter,
		Locale:        ds.Locale,
		Warnings:      nonNil(ds.Warnings),
	})
}

func (h *DataHandler) Groups(c echo.Context) error {
	session := c.Param("session")
	groups, err := h.datasets.GroupEstimates(c.Request().Context(), session)
	if err != nil {
		return h.fail(c, "groups", session, err)
	}
	return xhttp.ListResponse(c, groups, int64(len(groups)))
}

func (h *DataHandler) Enrich(c echo.Context) error {
	session := c.Param("session")
	ctx := c.Request().Context()

	if async, _ := strconv.ParseBool(c.QueryParam("async")); async {
		if h.scheduler == nil {
			return xhttp.AppErrorResponse(c, xhttp.ConflictErrorf("background enrichment is not enabled"))
		}
		id, err := h.scheduler.Schedule(ctx, session)
		if err != nil {
			return h.fail(c, "schedule", session, err)
		}
		return xhttp.AcceptedResponse(c, &models.EnrichAcceptedResponse{SessionID: session, JobID: id})
	}

	res, err := h.enricher.Enrich(ctx, session)
	if err != nil {
		return h.fail(c, "enrich", session, err)
	}
	return xhttp.SuccessResponse(c, &models.EnrichResponse{
		SessionID:  res.SessionID,
		Rows:       res.Rows,
		Categories: res.Categories,
		Summary:    res.Summary,
	})
}

func (h *DataHandler) Export(c echo.Context) error {
	session := c.Param("session")
	res, err := h.enricher.Result(c.Request().Context(), session)
	if err != nil {
		return h.fail(c, "export", session, err)
	}

	key := fmt.Sprintf("export:%s:%d", session, res.GeneratedAt.UnixNano())
	if h.exports != nil {
		if b, ok := h.exports.GetBytes(key); ok {
			return xhttp.CSVAttachment(c, exportName(session), b)
		}
	}
	var buf bytes.Buffer
	if err := report.WriteEnriched(&buf, res, h.cfg.Format); err != nil {
		return h.fail(c, "export", session, err)
	}
	if h.exports != nil {
		h.exports.SetBytes(key, buf.Bytes(), exportTTL)
	}
	return xhttp.CSVAttachment(c, exportName(session), buf.Bytes())
}

func (h *DataHandler) Report(c echo.Context) error {
	session := c.Param("session")
	res, err := h.enricher.Result(c.Request().Context(), session)
	if err != nil {
		return h.fail(c, "report", session, err)
	}
	return xhttp.SuccessResponse(c, res.Summary)
}

// fail maps usecase errors onto API errors.
func (h *DataHandler) fail(c echo.Context, op, session string, err error) error {
	switch {
	case errors.Is(err, domrepo.ErrNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("session %q not found or not enriched", session))
	case errors.Is(err, ingest.ErrInvalid):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	case errors.Is(err, ingest.ErrEmpty), errors.Is(err, ingest.ErrMissingColumns):
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableError("file", err.Error()))
	}
	h.logger.Error(op+" failed", logger.String("session", session), logger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError(op+" failed").WithError(err))
}

func exportName(session string) string {
	return "enriched_" + session + ".csv"
}

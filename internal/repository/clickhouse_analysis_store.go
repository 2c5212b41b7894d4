package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
)

const analysisColumns = "computed_at, source, session_id, category, product_id, elasticity, r2, n_points, relative_elasticity, relative_volume, recommendation, role, optimal_price"

// AnalysisSchema creates the analyses table. Undefined estimates are stored as NULL.
func AnalysisSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	computed_at DateTime64(3, 'UTC'),
	source LowCardinality(String),
	session_id String,
	category String,
	product_id String,
	elasticity Nullable(Float64),
	r2 Float64,
	n_points UInt32,
	relative_elasticity Nullable(Float64),
	relative_volume Nullable(Float64),
	recommendation LowCardinality(String),
	role LowCardinality(String),
	optimal_price Nullable(Float64)
) ENGINE = MergeTree
ORDER BY (product_id, computed_at)`, database, table),
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	PingContext(ctx context.Context) error
}

// ClickHouseAnalysisStore appends analysis records with multi-row inserts.
type ClickHouseAnalysisStore struct {
	db        execer
	table     string
	chunkSize int
}

func NewClickHouseAnalysisStore(db *sql.DB, table string, chunkSize int) *ClickHouseAnalysisStore {
	return newClickHouseAnalysisStore(db, table, chunkSize)
}

func newClickHouseAnalysisStore(db execer, table string, chunkSize int) *ClickHouseAnalysisStore {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &ClickHouseAnalysisStore{db: db, table: table, chunkSize: chunkSize}
}

func (s *ClickHouseAnalysisStore) StoreBatch(ctx context.Context, records []models.AnalysisRecord) error {
	for start := 0; start < len(records); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(records) {
			end = len(records)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*13)
		for _, r := range records[start:end] {
			if r.ProductID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.ComputedAt.UTC(),
				r.Source,
				r.SessionID,
				r.Category,
				r.ProductID,
				nullable(r.Elasticity),
				r.R2,
				uint32(r.NPoints),
				nullable(r.RelativeElasticity),
				nullable(r.RelativeVolume),
				r.Recommendation,
				r.Role,
				nullable(r.OptimalPrice),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, analysisColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert analyses: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseAnalysisStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nullable(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

var _ domrepo.AnalysisStore = (*ClickHouseAnalysisStore)(nil)

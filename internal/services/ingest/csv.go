// Package ingest turns uploaded CSV bytes into cleaned observation groups.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"PriceOpt/internal/domain/models"
	"PriceOpt/pkg/util"
)

var (
	ErrEmpty          = errors.New("csv has no data rows")
	ErrMissingColumns = errors.New("missing required columns")
	ErrInvalid        = errors.New("invalid csv")
)

const (
	DefaultMinObservations = 3
	AllGroup               = "all"
)

type Options struct {
	MinObservations int
	MaxRows         int // 0 means unlimited
}

// candidate is one way of reading the file. Candidates are tried in order and
// the best score wins; earlier candidates win ties.
type candidate struct {
	delim  rune
	locale util.NumberLocale
}

var candidates = []candidate{
	{',', util.DecimalPoint},
	{';', util.DecimalComma},
	{';', util.DecimalPoint},
	{'\t', util.DecimalPoint},
	{'\t', util.DecimalComma},
	{'|', util.DecimalPoint},
	{',', util.DecimalComma},
}

type attempt struct {
	cand     candidate
	records  [][]string
	mapping  models.ColumnMapping
	warnings []string
	score    float64
	err      error
}

// Parse reads CSV bytes, resolves columns by synonym and builds category groups.
func Parse(data []byte, opts Options) (*models.Dataset, error) {
	if opts.MinObservations <= 0 {
		opts.MinObservations = DefaultMinObservations
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}

	best := pickBest(data, opts.MaxRows)
	if best.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, best.err)
	}
	if len(best.records) < 2 {
		return nil, ErrEmpty
	}
	if missing := missingColumns(best.mapping); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumns, missing)
	}
	return build(best, opts), nil
}

func pickBest(data []byte, maxRows int) attempt {
	var best attempt
	for i, c := range candidates {
		a := try(data, c, maxRows)
		if i == 0 || a.score > best.score {
			best = a
		}
	}
	return best
}

func try(data []byte, c candidate, maxRows int) attempt {
	a := attempt{cand: c, score: -1}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = c.delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			a.err = err
			return a
		}
		if isBlank(rec) {
			continue
		}
		a.records = append(a.records, rec)
		if maxRows > 0 && len(a.records) > maxRows {
			break
		}
	}
	if len(a.records) == 0 {
		a.err = ErrEmpty
		return a
	}

	header := a.records[0]
	a.mapping, a.warnings = resolveColumns(header)
	a.score = score(a, len(header))
	return a
}

// score rewards a single-column-count table, resolved price/quantity columns and
// a high share of numeric cells in them under the candidate's locale.
func score(a attempt, width int) float64 {
	if width < 2 {
		return 0
	}
	rows := a.records[1:]
	if len(rows) == 0 {
		return 0.5
	}
	consistent := 0
	for _, rec := range rows {
		if len(rec) == width {
			consistent++
		}
	}
	s := float64(consistent) / float64(len(rows))

	if len(missingColumns(a.mapping)) > 0 {
		return s
	}
	s += 1
	numeric := 0
	for _, rec := range rows {
		_, okP := cellFloat(rec, a.mapping.Price, a.cand.locale)
		_, okQ := cellFloat(rec, a.mapping.Quantity, a.cand.locale)
		if okP && okQ {
			numeric++
		}
	}
	return s + float64(numeric)/float64(len(rows))
}

func build(a attempt, opts Options) *models.Dataset {
	header := a.records[0]
	ds := &models.Dataset{
		Header:    header,
		Columns:   a.mapping,
		Delimiter: string(a.cand.delim),
		Locale:    a.cand.locale.String(),
		Warnings:  a.warnings,
	}

	groupIdx := make(map[string]int)
	for i, rec := range a.records[1:] {
		price, okP := cellFloat(rec, a.mapping.Price, a.cand.locale)
		qty, okQ := cellFloat(rec, a.mapping.Quantity, a.cand.locale)
		if !okP || !okQ {
			ds.DroppedRows++
			continue
		}
		row := models.Row{
			Index:    i,
			Cells:    rec,
			Category: AllGroup,
			Price:    price,
			Quantity: qty,
		}
		if v := cell(rec, a.mapping.Category); v != "" {
			row.Category = v
		}
		row.Product = cell(rec, a.mapping.Product)
		if row.Product == "" {
			row.Product = row.Category
		}
		if cp, ok := cellFloat(rec, a.mapping.CompetitorPrice, a.cand.locale); ok {
			row.CompetitorPrice = &cp
		}
		ds.Rows = append(ds.Rows, row)

		if price <= 0 || qty <= 0 {
			continue
		}
		gi, ok := groupIdx[row.Category]
		if !ok {
			gi = len(ds.Groups)
			groupIdx[row.Category] = gi
			ds.Groups = append(ds.Groups, models.Group{Name: row.Category})
		}
		ds.Groups[gi].Observations = append(ds.Groups[gi].Observations, models.Observation{Price: price, Quantity: qty})
	}

	kept := ds.Groups[:0]
	for _, g := range ds.Groups {
		if len(g.Observations) >= opts.MinObservations {
			kept = append(kept, g)
		}
	}
	ds.Groups = kept

	if ds.DroppedRows > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("Dropped %d rows with non-numeric price or quantity", ds.DroppedRows))
	}
	if len(ds.Groups) == 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("No groups with >=%d observations found", opts.MinObservations))
	}
	return ds
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func cellFloat(rec []string, idx int, locale util.NumberLocale) (float64, bool) {
	v := cell(rec, idx)
	if v == "" {
		return 0, false
	}
	return util.ParseLocaleFloat(v, locale)
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

package ingest

import (
	"fmt"
	"strings"

	"PriceOpt/internal/domain/models"
	"PriceOpt/pkg/util"
)

type columnRole string

const (
	rolePrice           columnRole = "price"
	roleQuantity        columnRole = "quantity"
	roleCategory        columnRole = "category"
	roleProduct         columnRole = "product"
	roleCompetitorPrice columnRole = "competitor price"
)

// resolution order matters: competitor price must claim its column before the
// looser price synonyms get a chance to
var roleOrder = []columnRole{roleCompetitorPrice, rolePrice, roleQuantity, roleCategory, roleProduct}

var synonyms = map[columnRole][]string{
	rolePrice:           {"price", "precio", "prc", "unit_price", "precio_unitario", "pvp", "sale_price"},
	roleQuantity:        {"quantity", "cantidad", "qty", "units", "unidades", "cant", "volume", "volumen"},
	roleCategory:        {"category", "categoria", "category_name", "familia", "family", "segment"},
	roleProduct:         {"product", "producto", "product_name", "product_id", "descripcion", "description", "sku", "item", "articulo"},
	roleCompetitorPrice: {"competitor_price", "precio_competencia", "comp_price", "competitor", "precio_competidor"},
}

type columnMatch struct {
	index int
	score int // 2 exact synonym, 1 synonym contained in header
}

// resolveColumns maps normalized headers to roles. Exact matches are claimed
// before partial ones; a column is never assigned twice.
func resolveColumns(header []string) (models.ColumnMapping, []string) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = util.NormalizeHeader(h)
	}

	claimed := make(map[int]bool)
	found := make(map[columnRole]int)
	for _, pass := range []int{2, 1} {
		for _, role := range roleOrder {
			if _, ok := found[role]; ok {
				continue
			}
			if m, ok := bestMatch(norm, synonyms[role], pass, claimed); ok {
				found[role] = m.index
				claimed[m.index] = true
			}
		}
	}

	mapping := models.ColumnMapping{Price: -1, Quantity: -1, Category: -1, Product: -1, CompetitorPrice: -1}
	var warnings []string
	for _, role := range []columnRole{rolePrice, roleQuantity, roleCategory, roleProduct, roleCompetitorPrice} {
		idx, ok := found[role]
		if !ok {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("Matched %s column: %s", role, header[idx]))
		switch role {
		case rolePrice:
			mapping.Price = idx
		case roleQuantity:
			mapping.Quantity = idx
		case roleCategory:
			mapping.Category = idx
		case roleProduct:
			mapping.Product = idx
		case roleCompetitorPrice:
			mapping.CompetitorPrice = idx
		}
	}
	return mapping, warnings
}

func bestMatch(norm, syns []string, score int, claimed map[int]bool) (columnMatch, bool) {
	for i, h := range norm {
		if claimed[i] || h == "" {
			continue
		}
		for _, s := range syns {
			if (score == 2 && h == s) || (score == 1 && containsToken(h, s)) {
				return columnMatch{index: i, score: score}, true
			}
		}
	}
	return columnMatch{}, false
}

// containsToken matches s as a whole '_'-separated token run inside h, so
// "unit_price_usd" matches "price" but "priceless" does not.
func containsToken(h, s string) bool {
	return h == s ||
		strings.HasPrefix(h, s+"_") ||
		strings.HasSuffix(h, "_"+s) ||
		strings.Contains(h, "_"+s+"_")
}

func missingColumns(m models.ColumnMapping) []string {
	var missing []string
	if m.Price < 0 {
		missing = append(missing, string(rolePrice))
	}
	if m.Quantity < 0 {
		missing = append(missing, string(roleQuantity))
	}
	return missing
}

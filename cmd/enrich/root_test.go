package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnrichWritesOutputAndSummary(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "sales.csv")
	csv := "price,quantity,product\n" +
		"10,100,A\n12,70,A\n14,51,A\n16,39,A\n" +
		"10,50,B\n12,46,B\n14,42,B\n16,40,B\n"
	require.NoError(t, os.WriteFile(input, []byte(csv), 0o600))

	prefix := filepath.Join(dir, "report")
	err := withContext(context.Background(), "--input", input, "--summary", prefix, "--log-level", "error")
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(dir, "sales_enriched.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 9)
	require.Contains(t, lines[0], "product_role")
	require.True(t, strings.HasPrefix(lines[0], "price;quantity;product;"))

	_, err = os.Stat(prefix + "_overall.csv")
	require.NoError(t, err)
	_, err = os.Stat(prefix + "_roles.csv")
	require.NoError(t, err)
}

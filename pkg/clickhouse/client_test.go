package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "pricing",
		User:        "svc",
		Password:    "p@ss",
		DialTimeout: 5 * time.Second,
		AsyncInsert: true,
	})
	require.Equal(t, "clickhouse://svc:p%40ss@ch:9000/pricing?async_insert=1&dial_timeout=5s", dsn)

	dsn = BuildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "pricing", UseHTTP: true})
	require.Equal(t, "http://ch:8123/pricing", dsn)
}

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"PriceOpt/pkg/config"
	xhttp "PriceOpt/pkg/http"
	"PriceOpt/pkg/logger"
	"PriceOpt/pkg/queue"
)

var pingRoutes = xhttp.RouteFunc(func(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
})

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRunContextServesUntilCancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ShutdownTimeout = 2 * time.Second
	port := freePort(t)

	srv := xhttp.NewServer(pingRoutes, logger.Nop(),
		xhttp.WithHost("127.0.0.1"),
		xhttp.WithPort(port),
		xhttp.WithMetricsPath(""),
	)
	q := queue.NewMemoryQueue(logger.Nop(), queue.QueueConfig{Workers: 1})
	app := New(cfg, logger.Nop(), srv, WithConsumer(nil, nil, nil), WithQueue(q))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.RunContext(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/ping", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not shut down")
	}
}

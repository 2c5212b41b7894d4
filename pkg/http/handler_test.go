package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestRoutesRegistersEveryHandler(t *testing.T) {
	var order []string
	route := func(path string) Handler {
		return RouteFunc(func(e *echo.Echo) {
			order = append(order, path)
			e.GET(path, func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		})
	}

	e := echo.New()
	Routes{route("/a"), nil, route("/b")}.RegisterRoutes(e)
	require.Equal(t, []string{"/a", "/b"}, order)

	for _, p := range order {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		require.Equal(t, http.StatusOK, rec.Code, p)
	}
}

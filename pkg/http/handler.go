package http

import "github.com/labstack/echo/v4"

// Handler registers one group of routes on the shared echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// Routes combines handlers into one, registering them in order.
type Routes []Handler

func (r Routes) RegisterRoutes(e *echo.Echo) {
	for _, h := range r {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}

// RouteFunc lets a plain function serve as a Handler.
type RouteFunc func(e *echo.Echo)

func (f RouteFunc) RegisterRoutes(e *echo.Echo) { f(e) }

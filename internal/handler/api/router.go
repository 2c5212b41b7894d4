package api

import (
	xhttp "PriceOpt/pkg/http"
)

// NewRouter groups the API handlers so the server registers them as one.
func NewRouter(handlers ...xhttp.Handler) xhttp.Routes {
	return xhttp.Routes(handlers)
}

package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths bypass token parsing: infrastructure endpoints and the
// identity-provider webhook, which carries its own signature.
var publicPaths = map[string]bool{
	"/health":         true,
	"/health/db":      true,
	"/metrics":        true,
	"/webhooks/clerk": true,
}

// AuthSkipper matches on the registered route path. Use it as
// JWTConfig.Skipper.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}

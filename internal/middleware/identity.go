package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/pathik-bd/pathik-api/internal/model"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxName   = "name"
	ctxPhoto  = "photo"
)

// CurrentIdentity returns the authenticated user stored in the context by
// JWTAuth.  Outside an authenticated route the zero Identity is returned.
func CurrentIdentity(c echo.Context) model.Identity {
	return model.Identity{
		UserID:      ctxString(c, ctxUserID),
		DisplayName: ctxString(c, ctxName),
		PhotoURL:    ctxString(c, ctxPhoto),
		Role:        ctxString(c, ctxRole),
	}
}

func ctxString(c echo.Context, key string) string {
	if s, ok := c.Get(key).(string); ok {
		return s
	}
	return ""
}

func currentUserID(c echo.Context) string {
	if s := ctxString(c, ctxUserID); s != "" {
		return s
	}
	return "anon"
}

package middleware

import "github.com/labstack/echo/v4"

// ActorPublic names unauthenticated callers in audit entries.
const ActorPublic = "public"

// UserID returns the authenticated subject or "" for anonymous requests.
func UserID(c echo.Context) string {
	if v, ok := c.Get(ContextUserID).(string); ok {
		return v
	}
	return ""
}

// Actor returns the audit actor of the request: "staff:<subject>" for
// authenticated staff, ActorPublic otherwise.
func Actor(c echo.Context) string {
	if id := UserID(c); id != "" {
		return "staff:" + id
	}
	return ActorPublic
}

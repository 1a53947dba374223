package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID is the caller id as a key fragment, or "anon" before
// JWTAuth has run.
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	if s := fmt.Sprint(v); s != "" && s != "0" {
		return s
	}
	return "anon"
}

package handler

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
)

const dateLayout = "2006-01-02"

// getUserID extracts the user_id set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// actor is getUserID for handlers that need an authenticated caller.
func actor(c echo.Context) (uint64, error) {
	id, err := getUserID(c)
	if err != nil || id == 0 {
		return 0, apperr.Unauthorized("unauthorized")
	}
	return id, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// bind decodes and validates a JSON body.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("invalid request body").Wrap(err)
	}
	return c.Validate(dst)
}

// dateRange reads startDate/endDate (YYYY-MM-DD, UTC) from the query.
// endDate is inclusive, so the returned upper bound is the next midnight.
func dateRange(c echo.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if s := strings.TrimSpace(c.QueryParam("startDate")); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.UTC)
		if err != nil {
			return nil, nil, apperr.Validation("startDate must be YYYY-MM-DD")
		}
		from = &t
	}
	if s := strings.TrimSpace(c.QueryParam("endDate")); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.UTC)
		if err != nil {
			return nil, nil, apperr.Validation("endDate must be YYYY-MM-DD")
		}
		next := t.AddDate(0, 0, 1)
		to = &next
	}
	return from, to, nil
}

// jsonFieldName makes validator messages use the JSON names clients send.
func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

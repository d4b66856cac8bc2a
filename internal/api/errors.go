package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/waxcrate/waxcrate/internal/sec"
	"github.com/waxcrate/waxcrate/internal/storage"
)

// toHTTPError converts domain errors to Echo HTTP errors: duplicate
// username → 400, bad credentials or missing session → 401, unknown entity
// → 404. Anything unclassified passes through for Echo's default 500
// handling.
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	switch {
	case errors.Is(err, storage.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusBadRequest, "username already taken")
	case errors.Is(err, sec.ErrBadCredentials), errors.Is(err, sec.ErrNoSession):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials or session")
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	default:
		return err
	}
}

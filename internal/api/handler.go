package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/waxcrate/waxcrate/internal/metadata"
	"github.com/waxcrate/waxcrate/internal/sec"
	"github.com/waxcrate/waxcrate/internal/storage"
	"github.com/waxcrate/waxcrate/internal/storage/db"
)

const sessionCookieName = "waxcrate_session"

type handler struct {
	store  storage.Store
	authn  *sec.Authenticator
	source metadata.Source
	secret []byte
}

func (h handler) register(e *echo.Echo) {
	e.POST("/api/register", h.registerUser)
	e.POST("/api/login", h.login)
	e.POST("/api/logout", h.logout)

	authed := e.Group("/api", h.requireAuth)
	authed.GET("/user", h.currentUser)

	authed.GET("/records", h.listRecords)
	authed.POST("/records", h.createRecord)
	authed.GET("/records/search/:query", h.searchRecords)
	authed.GET("/records/:id", h.getRecord)
	authed.PUT("/records/:id", h.updateRecord)
	authed.DELETE("/records/:id", h.deleteRecord)

	authed.POST("/metadata/lookup", h.lookupMetadata)
}

// requireAuth rejects requests without a valid session. The resolved user is
// stashed on the request context.
func (h handler) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(sessionCookieName)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		token, err := sec.ParseSessionCookie(cookie.Value, h.secret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		user, err := h.authn.CurrentUser(c.Request().Context(), token)
		if err != nil {
			return toHTTPError(err)
		}
		c.SetRequest(c.Request().WithContext(
			sec.SetAuthenticatedUser(c.Request().Context(), user),
		))
		return next(c)
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h handler) registerUser(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	for field, value := range map[string]string{
		"username": req.Username,
		"password": req.Password,
		"name":     req.Name,
	} {
		if strings.TrimSpace(value) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, field+" is required")
		}
	}

	user, sess, err := h.authn.Register(c.Request().Context(), req.Username, req.Password, req.Name)
	if err != nil {
		return toHTTPError(err)
	}
	h.setSessionCookie(c, sess)
	return c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h handler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	user, sess, err := h.authn.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return toHTTPError(err)
	}
	h.setSessionCookie(c, sess)
	return c.JSON(http.StatusOK, user)
}

func (h handler) logout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		if token, err := sec.ParseSessionCookie(cookie.Value, h.secret); err == nil {
			if err := h.authn.Logout(c.Request().Context(), token); err != nil {
				return toHTTPError(err)
			}
		}
	}
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusOK)
}

func (h handler) currentUser(c echo.Context) error {
	user := sec.GetAuthenticatedUser(c.Request().Context())
	return c.JSON(http.StatusOK, user)
}

func (h handler) listRecords(c echo.Context) error {
	user := sec.GetAuthenticatedUser(c.Request().Context())
	records, err := h.store.ListRecords(c.Request().Context(), user.ID)
	if err != nil {
		return toHTTPError(err)
	}
	if records == nil {
		records = []db.Record{}
	}
	return c.JSON(http.StatusOK, records)
}

// fetchOwned resolves the :id parameter and enforces that the caller owns
// the record: 404 for unknown IDs, 403 for another user's record.
func (h handler) fetchOwned(c echo.Context) (db.Record, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return db.Record{}, echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	rec, err := h.store.GetRecord(c.Request().Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return db.Record{}, echo.NewHTTPError(http.StatusNotFound, "record not found")
	} else if err != nil {
		return db.Record{}, err
	}
	if user := sec.GetAuthenticatedUser(c.Request().Context()); rec.OwnerID != user.ID {
		return db.Record{}, echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return rec, nil
}

func (h handler) getRecord(c echo.Context) error {
	rec, err := h.fetchOwned(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

type recordRequest struct {
	Title        string            `json:"title"`
	Artist       string            `json:"artist"`
	Year         string            `json:"year"`
	Genre        string            `json:"genre"`
	CoverImage   string            `json:"coverImage"`
	CustomFields map[string]string `json:"customFields"`
}

func (h handler) createRecord(c echo.Context) error {
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if strings.TrimSpace(req.Artist) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "artist is required")
	}
	if err := validateCustomFields(req.CustomFields); err != nil {
		return err
	}

	user := sec.GetAuthenticatedUser(c.Request().Context())
	rec, err := h.store.CreateRecord(c.Request().Context(), db.NewRecord{
		OwnerID:      user.ID,
		Title:        req.Title,
		Artist:       req.Artist,
		Year:         req.Year,
		Genre:        req.Genre,
		CoverImage:   req.CoverImage,
		CustomFields: req.CustomFields,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

type recordPatchRequest struct {
	Title        *string           `json:"title"`
	Artist       *string           `json:"artist"`
	Year         *string           `json:"year"`
	Genre        *string           `json:"genre"`
	CoverImage   *string           `json:"coverImage"`
	CustomFields map[string]string `json:"customFields"`
}

func (h handler) updateRecord(c echo.Context) error {
	var req recordPatchRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title must not be blank")
	}
	if req.Artist != nil && strings.TrimSpace(*req.Artist) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "artist must not be blank")
	}
	if err := validateCustomFields(req.CustomFields); err != nil {
		return err
	}

	rec, err := h.fetchOwned(c)
	if err != nil {
		return err
	}
	updated, err := h.store.UpdateRecord(c.Request().Context(), rec.ID, db.RecordPatch{
		Title:        req.Title,
		Artist:       req.Artist,
		Year:         req.Year,
		Genre:        req.Genre,
		CoverImage:   req.CoverImage,
		CustomFields: req.CustomFields,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h handler) deleteRecord(c echo.Context) error {
	rec, err := h.fetchOwned(c)
	if err != nil {
		return err
	}
	if _, err := h.store.DeleteRecord(c.Request().Context(), rec.ID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h handler) searchRecords(c echo.Context) error {
	user := sec.GetAuthenticatedUser(c.Request().Context())
	records, err := h.store.SearchRecords(c.Request().Context(), user.ID, c.Param("query"))
	if err != nil {
		return toHTTPError(err)
	}
	if records == nil {
		records = []db.Record{}
	}
	return c.JSON(http.StatusOK, records)
}

type lookupRequest struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

func (h handler) lookupMetadata(c echo.Context) error {
	var req lookupRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Artist) == "" || strings.TrimSpace(req.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "artist and title are required")
	}
	return c.JSON(http.StatusOK, h.source.Lookup(c.Request().Context(), req.Artist, req.Title))
}

func validateCustomFields(fields map[string]string) error {
	for name := range fields {
		if strings.TrimSpace(name) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "custom field names must not be blank")
		}
	}
	return nil
}

func (h handler) setSessionCookie(c echo.Context, sess db.Session) {
	signed, err := sec.SignSessionToken(sess.Token, h.secret, sess.ExpiresAt)
	if err != nil {
		// Signing only fails on a broken secret; the session itself exists.
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h handler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

package folio

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// handleAPIListPublished serves the public feed: published posts only,
// newest publication first, cover URLs resolved.
func (a *App) handleAPIListPublished(c echo.Context) error {
	posts, err := a.Cache.ListPublished(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// handleAPIGetPost looks a published post up by slug. Exact match only;
// an unknown slug is a 404, never an error. Drafts stay invisible here,
// same as on the HTML surface: the authoring surface reads them through
// the admin listing instead.
func (a *App) handleAPIGetPost(c echo.Context) error {
	post, err := a.Cache.GetPublished(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	if post == nil {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}
	return c.JSON(http.StatusOK, post)
}

type loginRequest struct {
	Password string `json:"password"`
}

// handleAPILogin verifies the admin credential and issues a capability
// token for subsequent write calls. Failed attempts count against the
// per-IP limiter.
func (a *App) handleAPILogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !a.Gate.Verify(req.Password) {
		a.loginLimiter.Record(c.RealIP())
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	token, err := a.Gate.IssueToken()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (a *App) handleAPIListAll(c echo.Context) error {
	posts, err := a.Store.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []Post{}
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleAPICreatePost(c echo.Context) error {
	var draft PostDraft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if draft.Slug == "" {
		draft.Slug = Slugify(draft.Title)
	}
	if draft.Slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "slug is required")
	}
	id, err := a.Store.CreatePost(c.Request().Context(), draft)
	if err != nil {
		return mapStoreError(err)
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (a *App) handleAPIUpdatePost(c echo.Context) error {
	var draft PostDraft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if draft.Slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "slug is required")
	}
	if err := a.Store.UpdatePost(c.Request().Context(), c.Param("id"), draft); err != nil {
		return mapStoreError(err)
	}
	a.Cache.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleAPIDeletePost(c echo.Context) error {
	if err := a.Store.DeletePost(c.Request().Context(), c.Param("id")); err != nil {
		return mapStoreError(err)
	}
	a.Cache.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

// mapStoreError translates store sentinels into HTTP status codes.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	case errors.Is(err, ErrDuplicateSlug):
		return echo.NewHTTPError(http.StatusConflict, "slug already in use")
	case errors.Is(err, ErrAssetUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "asset backend unavailable")
	default:
		return err
	}
}

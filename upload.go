package folio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
)

// processCover decodes an uploaded image, downscales it to maxImageWidth
// if wider, and re-encodes it as JPEG. Covers are decorative; shipping
// multi-megabyte originals to the asset backend is wasted bandwidth.
func processCover(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// handleCoverUpload stores a cover image in the asset backend and returns
// the opaque handle plus its resolved URL. The handle goes into the post
// form; a failed upload rejects the request so a post can never reference
// a handle that was not stored.
func (a *App) handleCoverUpload(c echo.Context) error {
	if !IsAdmin(c) {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if a.Assets == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no asset backend configured")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no image file provided")
	}
	if file.Size > maxUploadSize {
		return echo.NewHTTPError(http.StatusBadRequest, "file too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	data, err := processCover(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image: "+err.Error())
	}

	ctx := c.Request().Context()
	handle, err := a.Assets.Store(ctx, data, "image/jpeg")
	if err != nil {
		if errors.Is(err, ErrAssetUnavailable) {
			return echo.NewHTTPError(http.StatusBadGateway, "asset backend unavailable")
		}
		return err
	}
	url, err := a.Assets.Resolve(ctx, handle)
	if err != nil {
		url = ""
	}
	return c.JSON(http.StatusOK, map[string]string{
		"handle": handle,
		"url":    url,
	})
}

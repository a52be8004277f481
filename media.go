package pubqueue

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/logger"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// processImage decodes an image from src, downsizes it to maxImageWidth
// when wider, and encodes it as JPEG.
func processImage(src io.Reader, originalName string, now time.Time) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	base := content.Slugify(strings.TrimSuffix(originalName, filepath.Ext(originalName)))
	if base == "" {
		base = "image"
	}
	return Image{
		Filename:     base + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   now.UTC().Format(time.RFC3339),
	}, buf.Bytes(), nil
}

// uniqueFilename appends a counter until neither the uploads directory nor
// the media table has the name.
func (a *App) uniqueFilename(ctx context.Context, name string) (string, error) {
	dir := filepath.Join(a.staticDir, uploadsSubdir)
	base := strings.TrimSuffix(name, ".jpg")
	candidate := name
	for counter := 2; ; counter++ {
		_, statErr := os.Stat(filepath.Join(dir, candidate))
		exists, err := a.Store.ImageExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if statErr != nil && !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
}

func (a *App) handleMediaUpload(c echo.Context) error {
	ctx := c.Request().Context()
	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(src, file.Filename, time.Now())
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}
	if img.Filename, err = a.uniqueFilename(ctx, img.Filename); err != nil {
		return err
	}

	dir := filepath.Join(a.staticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, img.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	if err := a.Store.SaveImage(ctx, img); err != nil {
		return err
	}
	a.log.Info("image uploaded", logger.String("file", img.Filename), logger.Int("bytes", img.Size))
	return c.Redirect(http.StatusSeeOther, "/admin/media/")
}

func (a *App) handleMediaDelete(c echo.Context) error {
	filename := filepath.Base(c.Param("filename"))
	if filename == "" || filename == "." || filename == "/" {
		return c.String(http.StatusBadRequest, "Filename required")
	}

	// A missing file is fine; the row is what the library lists.
	_ = os.Remove(filepath.Join(a.staticDir, uploadsSubdir, filename))

	if err := a.Store.DeleteImage(c.Request().Context(), filename); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/media/")
}

func (a *App) handleMediaList(c echo.Context) error {
	images, err := a.Store.ListImages(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminMedia(images, CsrfToken(c)))
}

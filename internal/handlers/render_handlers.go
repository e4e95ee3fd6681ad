package handlers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rmitchellscott/bayerlab/internal/imageprocessing"
	"github.com/rmitchellscott/bayerlab/internal/rendering"
)

const (
	renderTimeout   = 2 * time.Minute
	downloadTimeout = 30 * time.Second
	maxDimension    = 8192
)

// renderForm holds the multipart fields of POST /api/render
type renderForm struct {
	URL       string   `form:"url" binding:"omitempty,url"`
	Palette   string   `form:"palette" binding:"max=64"`
	Colors    string   `form:"colors"`
	Extract   int      `form:"extract" binding:"min=0,max=256"`
	Depth     *int     `form:"depth" binding:"omitempty,min=0"`
	Divisor   *float64 `form:"divisor" binding:"omitempty,gt=0"`
	Width     int      `form:"width" binding:"min=0,max=8192"`
	Height    int      `form:"height" binding:"min=0,max=8192"`
	Resize    string   `form:"resize" binding:"omitempty,oneof=none fit fill"`
	Reference bool     `form:"reference"`
}

// RenderResponse describes a finished render
type RenderResponse struct {
	ID           uuid.UUID `json:"id"`
	Palette      string    `json:"palette"`
	Colors       []string  `json:"colors"`
	Depth        int       `json:"depth"`
	Divisor      float64   `json:"divisor"`
	Strength     float64   `json:"strength"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	PlainURL     string    `json:"plain_url,omitempty"`
	DitheredURL  string    `json:"dithered_url,omitempty"`
	ReferenceURL string    `json:"reference_url,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
}

// RenderHandler dithers an uploaded image, or one fetched from url
func (h *Handler) RenderHandler(c *gin.Context) {
	var form renderForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err)
		return
	}

	if form.Palette != "" && (form.Colors != "" || form.Extract > 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "palette cannot be combined with colors or extract"})
		return
	}

	resize, err := imageprocessing.ParseResizeMode(form.Resize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	img, name, err := h.loadImage(c, form.URL)
	if err != nil {
		respondError(c, err, "Failed to read image")
		return
	}

	req := rendering.Request{
		Image:           img,
		SourceName:      name,
		PaletteName:     form.Palette,
		Colors:          splitColors(form.Colors),
		ExtractColors:   form.Extract,
		Depth:           form.Depth,
		StrengthDivisor: form.Divisor,
		Width:           form.Width,
		Height:          form.Height,
		Resize:          resize,
		Reference:       form.Reference,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), renderTimeout)
	defer cancel()

	outcome, err := h.Renderer.Render(ctx, req)
	if err != nil {
		respondError(c, err, "Failed to render image")
		return
	}

	c.JSON(http.StatusOK, gin.H{"render": renderResponse(outcome)})
}

func renderResponse(o *rendering.Outcome) RenderResponse {
	resp := RenderResponse{
		ID:         o.ID,
		Palette:    o.PaletteName,
		Colors:     imageprocessing.FormatHexPalette(o.Palette),
		Depth:      o.Depth,
		Divisor:    o.Divisor,
		Strength:   o.Result.Strength,
		Width:      o.Result.Plain.Width,
		Height:     o.Result.Plain.Height,
		DurationMs: o.Duration.Milliseconds(),
	}
	if o.Plain != nil {
		resp.PlainURL = o.Plain.URL
	}
	if o.Dithered != nil {
		resp.DitheredURL = o.Dithered.URL
	}
	if o.Reference != nil {
		resp.ReferenceURL = o.Reference.URL
	}
	return resp
}

// loadImage reads the "image" multipart file, falling back to url
func (h *Handler) loadImage(c *gin.Context, url string) (image.Image, string, error) {
	file, header, err := c.Request.FormFile("image")
	if err == nil {
		defer file.Close()
		img, _, err := imageprocessing.DecodeImage(file)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", rendering.ErrInvalidRequest, err)
		}
		return checkDimensions(img, header.Filename)
	}
	if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return nil, "", err
	}

	if url == "" {
		return nil, "", fmt.Errorf("%w: an image file or url is required", rendering.ErrInvalidRequest)
	}
	img, _, err := imageprocessing.LoadImageFromURL(c.Request.Context(), url, downloadTimeout, h.URLPolicy)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", rendering.ErrInvalidRequest, err)
	}
	return checkDimensions(img, url)
}

func checkDimensions(img image.Image, name string) (image.Image, string, error) {
	b := img.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		return nil, "", fmt.Errorf("%w: image is %dx%d, at most %d pixels per side are accepted",
			rendering.ErrInvalidRequest, b.Dx(), b.Dy(), maxDimension)
	}
	return img, name, nil
}

func splitColors(s string) []string {
	var colors []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			colors = append(colors, part)
		}
	}
	return colors
}

// ListRendersHandler returns render history, newest first
func (h *Handler) ListRendersHandler(c *gin.Context) {
	if h.Records == nil {
		historyUnavailable(c)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must not be negative"})
		return
	}

	records, total, err := h.Records.ListRecords(limit, offset)
	if err != nil {
		respondError(c, err, "Failed to fetch renders")
		return
	}

	c.JSON(http.StatusOK, gin.H{"renders": records, "total": total})
}

// GetRenderHandler returns one render record
func (h *Handler) GetRenderHandler(c *gin.Context) {
	if h.Records == nil {
		historyUnavailable(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid render ID"})
		return
	}

	record, err := h.Records.GetRecord(id)
	if err != nil {
		respondError(c, err, "Failed to fetch render")
		return
	}
	c.JSON(http.StatusOK, gin.H{"render": record})
}

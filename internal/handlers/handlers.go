package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rmitchellscott/bayerlab/internal/config"
	"github.com/rmitchellscott/bayerlab/internal/database"
	"github.com/rmitchellscott/bayerlab/internal/dither"
	"github.com/rmitchellscott/bayerlab/internal/imageprocessing"
	"github.com/rmitchellscott/bayerlab/internal/logging"
	"github.com/rmitchellscott/bayerlab/internal/middleware"
	"github.com/rmitchellscott/bayerlab/internal/rendering"
	"github.com/rmitchellscott/bayerlab/internal/version"
)

// Handler serves the HTTP API. Palettes and Records may be nil when no
// database is configured; the endpoints that need them answer 503.
type Handler struct {
	Settings *config.Settings
	Renderer *rendering.Service
	Palettes *database.PaletteService
	Records  *database.RenderRecordService
	Limiter  *middleware.RateLimiter

	// Applied to ?url= image sources
	URLPolicy imageprocessing.URLPolicy
}

// RegisterRoutes mounts the API on router
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/health", h.HealthHandler)
		api.GET("/version", VersionHandler)
		api.GET("/config", h.ConfigHandler)
		api.GET("/bayer/:depth", BayerHandler)

		api.GET("/palettes", h.ListPalettesHandler)
		api.GET("/palettes/:name", h.GetPaletteHandler)
		api.POST("/palettes", h.CreatePaletteHandler)
		api.DELETE("/palettes/:name", h.DeletePaletteHandler)

		api.GET("/renders", h.ListRendersHandler)
		api.GET("/renders/:id", h.GetRenderHandler)
	}

	// Image uploads are size-capped and rate limited
	heavy := api.Group("")
	heavy.Use(middleware.RequestSizeLimit(h.Settings.MaxUploadBytes()))
	if h.Limiter != nil {
		heavy.Use(h.Limiter.RateLimit())
	}
	{
		heavy.POST("/render", h.RenderHandler)
		heavy.POST("/palettes/extract", h.ExtractPaletteHandler)
	}

	if strings.HasPrefix(h.Settings.RenderedImagesURL, "/") {
		router.Static(h.Settings.RenderedImagesURL, h.Settings.RenderedImagesPath)
	}
}

// HealthHandler reports liveness and render throughput
func (h *Handler) HealthHandler(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.Renderer != nil {
		resp["renders"] = h.Renderer.Stats().Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// VersionHandler returns build information
func VersionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}

// ConfigHandler returns the rendering defaults clients should assume
func (h *Handler) ConfigHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ditherDepth":      h.Settings.DitherDepth,
		"maxDepth":         dither.MaxDepth,
		"strengthDivisor":  h.Settings.StrengthDivisor,
		"defaultPalette":   h.Settings.DefaultPalette,
		"builtinPalettes":  imageprocessing.BuiltinPaletteNames(),
		"maxUploadMB":      h.Settings.MaxUploadMB,
		"maxExtractColors": imageprocessing.MaxExtractColors,
		"historyEnabled":   h.Records != nil,
	})
}

// respondError maps service errors onto status codes
func respondError(c *gin.Context, err error, fallback string) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request payload too large"})
	case errors.Is(err, dither.ErrInvalidArgument),
		errors.Is(err, rendering.ErrInvalidRequest),
		errors.Is(err, rendering.ErrUnknownPalette):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrPaletteExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Render timed out"})
	case errors.Is(err, context.Canceled):
		// Client went away
		c.Status(499)
	default:
		logging.ErrorWithComponent(logging.ComponentAPI, fallback, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// bindError answers a failed ShouldBind, telling oversized bodies apart from bad fields
func bindError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": validationErrorMessage(err)})
}

func historyUnavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database is not configured"})
}

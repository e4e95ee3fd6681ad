package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rmitchellscott/bayerlab/internal/imageprocessing"
	"github.com/rmitchellscott/bayerlab/internal/logging"
)

// PaletteResponse is the API view of a builtin or saved palette
type PaletteResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Colors      []string `json:"colors"`
	Builtin     bool     `json:"builtin"`
}

// ListPalettesHandler returns builtin palettes followed by saved ones
func (h *Handler) ListPalettesHandler(c *gin.Context) {
	palettes := make([]PaletteResponse, 0)
	for _, name := range imageprocessing.BuiltinPaletteNames() {
		p, _ := imageprocessing.BuiltinPalette(name)
		palettes = append(palettes, PaletteResponse{Name: name, Colors: imageprocessing.FormatHexPalette(p), Builtin: true})
	}

	if h.Palettes != nil {
		saved, err := h.Palettes.ListPalettes()
		if err != nil {
			respondError(c, err, "Failed to fetch palettes")
			return
		}
		for _, sp := range saved {
			colors, err := sp.HexColors()
			if err != nil {
				logging.WarnWithComponent(logging.ComponentPalette, "Skipping corrupt palette", "name", sp.Name, "error", err)
				continue
			}
			palettes = append(palettes, PaletteResponse{Name: sp.Name, Description: sp.Description, Colors: colors})
		}
	}

	c.JSON(http.StatusOK, gin.H{"palettes": palettes})
}

// GetPaletteHandler returns one palette by name
func (h *Handler) GetPaletteHandler(c *gin.Context) {
	name := strings.ToLower(c.Param("name"))
	if p, ok := imageprocessing.BuiltinPalette(name); ok {
		c.JSON(http.StatusOK, gin.H{"palette": PaletteResponse{Name: name, Colors: imageprocessing.FormatHexPalette(p), Builtin: true}})
		return
	}
	if h.Palettes == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Palette not found"})
		return
	}

	sp, err := h.Palettes.GetPaletteByName(name)
	if err != nil {
		respondError(c, err, "Failed to fetch palette")
		return
	}
	colors, err := sp.HexColors()
	if err != nil {
		respondError(c, err, "Stored palette is corrupt")
		return
	}
	c.JSON(http.StatusOK, gin.H{"palette": PaletteResponse{Name: sp.Name, Description: sp.Description, Colors: colors}})
}

// CreatePaletteHandler saves a user palette
func (h *Handler) CreatePaletteHandler(c *gin.Context) {
	if h.Palettes == nil {
		historyUnavailable(c)
		return
	}

	var req struct {
		Name        string   `json:"name" binding:"required,max=64"`
		Description string   `json:"description" binding:"max=255"`
		Colors      []string `json:"colors" binding:"required,min=1,max=256,dive,hexcolor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := ValidatePaletteName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := imageprocessing.BuiltinPalette(req.Name); ok {
		c.JSON(http.StatusConflict, gin.H{"error": "Palette name is reserved for a builtin palette"})
		return
	}

	palette, err := imageprocessing.ParseHexColors(req.Colors)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sp, err := h.Palettes.CreatePalette(req.Name, req.Description, imageprocessing.FormatHexPalette(palette))
	if err != nil {
		respondError(c, err, "Failed to create palette")
		return
	}

	logging.InfoWithComponent(logging.ComponentPalette, "Saved palette", "name", sp.Name, "colors", len(palette))
	c.JSON(http.StatusCreated, gin.H{"palette": PaletteResponse{
		Name:        sp.Name,
		Description: sp.Description,
		Colors:      imageprocessing.FormatHexPalette(palette),
	}})
}

// DeletePaletteHandler removes a saved palette
func (h *Handler) DeletePaletteHandler(c *gin.Context) {
	if h.Palettes == nil {
		historyUnavailable(c)
		return
	}
	name := c.Param("name")
	if _, ok := imageprocessing.BuiltinPalette(name); ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Builtin palettes cannot be deleted"})
		return
	}
	if err := h.Palettes.DeletePalette(name); err != nil {
		respondError(c, err, "Failed to delete palette")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Palette deleted"})
}

// ExtractPaletteHandler derives a palette from an uploaded image with median cut.
// ?format=yaml returns a palette file instead of JSON.
func (h *Handler) ExtractPaletteHandler(c *gin.Context) {
	n := 8
	if s := c.PostForm("colors"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > imageprocessing.MaxExtractColors {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("colors must be between 1 and %d", imageprocessing.MaxExtractColors)})
			return
		}
		n = v
	}

	img, name, err := h.loadImage(c, c.PostForm("url"))
	if err != nil {
		respondError(c, err, "Failed to read image")
		return
	}

	palette, err := imageprocessing.ExtractPalette(img, n)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logging.InfoWithComponent(logging.ComponentPalette, "Extracted palette", "source", name, "requested", n, "colors", len(palette))

	if c.Query("format") == "yaml" {
		data, err := imageprocessing.MarshalPaletteYAML(paletteNameFor(name), palette)
		if err != nil {
			respondError(c, err, "Failed to encode palette")
			return
		}
		c.Data(http.StatusOK, "application/x-yaml", data)
		return
	}

	c.JSON(http.StatusOK, gin.H{"colors": imageprocessing.FormatHexPalette(palette)})
}

// paletteNameFor builds a palette name from an upload's filename
func paletteNameFor(source string) string {
	base := strings.ToLower(source)
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-_")
	if name == "" {
		return "extracted"
	}
	return name
}

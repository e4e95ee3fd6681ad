package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rmitchellscott/bayerlab/internal/dither"
)

// BayerHandler returns the Bayer matrix for a depth. ?normalized=true adds the
// thresholds, ?flat=true the ranks in row-major order.
func BayerHandler(c *gin.Context) {
	depth, err := strconv.Atoi(c.Param("depth"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Depth must be an integer"})
		return
	}
	if depth > dither.MaxDepth {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Depth must be at most " + strconv.Itoa(dither.MaxDepth)})
		return
	}

	matrix, err := dither.BuildBayer(depth)
	if err != nil {
		respondError(c, err, "Failed to build matrix")
		return
	}

	resp := gin.H{
		"depth":  depth,
		"size":   matrix.Size(),
		"max":    matrix.Max(),
		"matrix": matrix,
	}
	if c.Query("normalized") == "true" {
		resp["thresholds"] = matrix.Normalize()
	}
	if c.Query("flat") == "true" {
		resp["values"] = matrix.Flatten()
	}
	c.JSON(http.StatusOK, resp)
}

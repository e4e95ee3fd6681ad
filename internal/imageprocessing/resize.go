package imageprocessing

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// ResizeMode selects how a source image is mapped onto the target size.
type ResizeMode string

const (
	// ResizeNone keeps the source dimensions.
	ResizeNone ResizeMode = "none"
	// ResizeFit scales to fit inside the target and letterboxes with black.
	ResizeFit ResizeMode = "fit"
	// ResizeFill scales to cover the target and crops the overflow.
	ResizeFill ResizeMode = "fill"
)

// ParseResizeMode validates a mode name. The empty string means ResizeFit.
func ParseResizeMode(s string) (ResizeMode, error) {
	switch ResizeMode(s) {
	case "":
		return ResizeFit, nil
	case ResizeNone, ResizeFit, ResizeFill:
		return ResizeMode(s), nil
	default:
		return "", fmt.Errorf("unknown resize mode %q (want none, fit or fill)", s)
	}
}

// Resize maps img onto a width×height canvas. A zero width or height keeps
// the aspect ratio from the other dimension; both zero returns img unchanged.
func Resize(img image.Image, width, height int, mode ResizeMode) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("target size must not be negative, got %dx%d", width, height)
	}
	if mode == ResizeNone || (width == 0 && height == 0) {
		return img, nil
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("source image is empty")
	}
	if width == 0 {
		width = max(1, bounds.Dx()*height/bounds.Dy())
	}
	if height == 0 {
		height = max(1, bounds.Dy()*width/bounds.Dx())
	}

	switch mode {
	case ResizeFill:
		return resizeToFill(img, width, height), nil
	default:
		return resizeToFit(img, width, height), nil
	}
}

// resizeToFit scales img to fit within the target, centered on black
func resizeToFit(img image.Image, targetWidth, targetHeight int) image.Image {
	bounds := img.Bounds()
	newWidth, newHeight := ScaledDimensions(bounds.Dx(), bounds.Dy(), targetWidth, targetHeight)

	canvas := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{color.RGBA{0, 0, 0, 255}}, image.Point{}, draw.Src)

	offsetX := (targetWidth - newWidth) / 2
	offsetY := (targetHeight - newHeight) / 2
	targetRect := image.Rect(offsetX, offsetY, offsetX+newWidth, offsetY+newHeight)
	xdraw.CatmullRom.Scale(canvas, targetRect, img, bounds, xdraw.Over, nil)

	return canvas
}

// resizeToFill scales img to cover the target and crops the centre
func resizeToFill(img image.Image, targetWidth, targetHeight int) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	scaleX := float64(targetWidth) / float64(srcWidth)
	scaleY := float64(targetHeight) / float64(srcHeight)
	scale := max(scaleX, scaleY)

	// Source rectangle that maps onto the whole canvas
	cropWidth := min(srcWidth, int(float64(targetWidth)/scale+0.5))
	cropHeight := min(srcHeight, int(float64(targetHeight)/scale+0.5))
	offsetX := bounds.Min.X + (srcWidth-cropWidth)/2
	offsetY := bounds.Min.Y + (srcHeight-cropHeight)/2
	srcRect := image.Rect(offsetX, offsetY, offsetX+cropWidth, offsetY+cropHeight)

	canvas := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), img, srcRect, xdraw.Src, nil)

	return canvas
}

// ScaledDimensions calculates the scaled dimensions that fit within the target while preserving aspect ratio
func ScaledDimensions(srcWidth, srcHeight, targetWidth, targetHeight int) (int, int) {
	scaleX := float64(targetWidth) / float64(srcWidth)
	scaleY := float64(targetHeight) / float64(srcHeight)
	scale := min(scaleX, scaleY)

	newWidth := max(1, int(float64(srcWidth)*scale))
	newHeight := max(1, int(float64(srcHeight)*scale))

	return newWidth, newHeight
}

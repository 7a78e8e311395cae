package profile

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// OptimizeOptions configures Optimize.
type OptimizeOptions struct {
	Size    int     // output width and height in pixels
	Quality int     // JPEG quality
	Sharpen float64 // gaussian sharpen sigma, 0 disables
}

// DefaultOptimizeOptions returns the settings for profile_optimized.jpg.
func DefaultOptimizeOptions() OptimizeOptions {
	return OptimizeOptions{Size: 300, Quality: 95, Sharpen: 0.5}
}

// SquareCrop returns the largest centered square of img.
func SquareCrop(img image.Image) *image.NRGBA {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	return imaging.CropCenter(img, side, side)
}

// Optimize crops src to its center square, resizes it to opts.Size,
// sharpens it and writes it to dst as JPEG.
func Optimize(src, dst string, opts OptimizeOptions) (Result, error) {
	if opts.Size <= 0 {
		return Result{}, fmt.Errorf("size must be positive, got %d", opts.Size)
	}

	img, err := Load(src)
	if err != nil {
		return Result{}, err
	}

	square := SquareCrop(ToRGB(img))
	out := imaging.Resize(square, opts.Size, opts.Size, imaging.Lanczos)
	if opts.Sharpen > 0 {
		out = imaging.Sharpen(out, opts.Sharpen)
	}

	return saveJPEG(out, dst, opts.Quality)
}

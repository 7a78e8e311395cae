// Package profile generates web-friendly variants of the lab profile picture.
//
// The site shows the picture as a 150px circle. Variants keep the whole
// photo (no cropping) at 1x and 2x resolution; the optimized output is a
// sharpened center square for places that need a fixed-size thumbnail.
package profile

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // accept .webp sources
)

// Variant describes one resized output.
type Variant struct {
	Name   string // output file name, relative to the output directory
	Height int    // target height in pixels
}

// DefaultVariants are the 1x and 2x outputs for a 150px display size.
var DefaultVariants = []Variant{
	{Name: "profile.jpg", Height: 600},
	{Name: "profile@2x.jpg", Height: 1200},
}

// DefaultQuality is the JPEG quality used for variants.
const DefaultQuality = 92

// Result describes a written image.
type Result struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int64  `json:"bytes"`
}

// ResolveSource returns primary when it exists, otherwise fallback. Relative
// names are joined to dir.
func ResolveSource(dir, primary, fallback string) string {
	p := joinDir(dir, primary)
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		return p
	}
	return joinDir(dir, fallback)
}

func joinDir(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// Load decodes an image file. JPEG, PNG, GIF, BMP, TIFF and WebP are accepted.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return img, nil
}

// ToRGB returns an opaque copy of img. Alpha and palette modes are flattened
// by dropping the alpha channel, so JPEG encoding doesn't darken transparent
// areas.
func ToRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// ResizeByHeight scales img to the given height keeping its aspect ratio.
// Images that are already no taller than height are copied unchanged.
func ResizeByHeight(img image.Image, height int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if h <= height {
		return imaging.Clone(img)
	}

	width := int(math.RoundToEven(float64(w) * float64(height) / float64(h)))
	if width < 1 {
		width = 1
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// GenerateVariants decodes src once and writes each variant into outDir.
// The source is fully read before any output is written, so a variant may
// safely overwrite it.
func GenerateVariants(src, outDir string, variants []Variant, quality int) ([]Result, error) {
	if len(variants) == 0 {
		return nil, errors.New("no variants requested")
	}

	img, err := Load(src)
	if err != nil {
		return nil, err
	}
	rgb := ToRGB(img)

	results := make([]Result, 0, len(variants))
	for _, v := range variants {
		if v.Height <= 0 {
			return results, fmt.Errorf("variant %s: height must be positive", v.Name)
		}
		out := ResizeByHeight(rgb, v.Height)
		res, err := saveJPEG(out, filepath.Join(outDir, v.Name), quality)
		if err != nil {
			return results, fmt.Errorf("variant %s: %w", v.Name, err)
		}
		results = append(results, res)
	}

	return results, nil
}

// saveJPEG encodes img to a temporary file next to path and renames it into place.
func saveJPEG(img image.Image, path string, quality int) (Result, error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return Result{}, fmt.Errorf("creating %s: %w", tmp, err)
	}

	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		f.Close()
		os.Remove(tmp)
		return Result{}, fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return Result{}, fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return Result{}, fmt.Errorf("renaming %s: %w", tmp, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}

	b := img.Bounds()
	return Result{Path: path, Width: b.Dx(), Height: b.Dy(), Bytes: info.Size()}, nil
}

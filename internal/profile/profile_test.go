package profile

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writeJPEG creates a w x h gradient JPEG at path.
func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding %s: %v", path, err)
	}
}

// imageSize decodes only the header of an image file.
func imageSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	return cfg.Width, cfg.Height
}

func TestResolveSource(t *testing.T) {
	dir := t.TempDir()

	if got := ResolveSource(dir, "profile_full.jpg", "profile.jpg"); got != filepath.Join(dir, "profile.jpg") {
		t.Errorf("ResolveSource() without full = %q", got)
	}

	writeJPEG(t, filepath.Join(dir, "profile_full.jpg"), 4, 4)
	if got := ResolveSource(dir, "profile_full.jpg", "profile.jpg"); got != filepath.Join(dir, "profile_full.jpg") {
		t.Errorf("ResolveSource() with full = %q", got)
	}

	abs := filepath.Join(t.TempDir(), "portrait.jpg")
	writeJPEG(t, abs, 4, 4)
	if got := ResolveSource(dir, abs, "profile.jpg"); got != abs {
		t.Errorf("ResolveSource() with absolute primary = %q, want %q", got, abs)
	}
}

func TestResizeByHeight(t *testing.T) {
	tests := []struct {
		name         string
		w, h, target int
		wantW, wantH int
	}{
		{"downscale", 800, 1600, 600, 300, 600},
		{"rounds width", 1000, 1500, 600, 400, 600},
		{"odd ratio", 333, 1000, 600, 200, 600},
		{"equal height untouched", 400, 600, 600, 400, 600},
		{"smaller untouched", 200, 300, 1200, 200, 300},
		{"wide image", 3000, 1300, 1200, 2769, 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			got := ResizeByHeight(src, tt.target).Bounds()
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("ResizeByHeight(%dx%d, %d) = %dx%d, want %dx%d",
					tt.w, tt.h, tt.target, got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestToRGB_DropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{200, 100, 50, 0})
	src.SetNRGBA(1, 0, color.NRGBA{10, 20, 30, 128})

	got := ToRGB(src)

	if c := got.NRGBAAt(0, 0); c != (color.NRGBA{200, 100, 50, 255}) {
		t.Errorf("pixel 0 = %v, want color kept with opaque alpha", c)
	}
	if c := got.NRGBAAt(1, 0); c.A != 255 || c.R != 10 {
		t.Errorf("pixel 1 = %v, want opaque", c)
	}
	if src.NRGBAAt(0, 0).A != 0 {
		t.Error("ToRGB() modified its input")
	}
}

func TestToRGB_Paletted(t *testing.T) {
	pal := color.Palette{color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255}}
	src := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	src.SetColorIndex(1, 1, 1)

	got := ToRGB(src)
	if c := got.NRGBAAt(1, 1); c != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("pixel = %v, want blue", c)
	}
}

func TestGenerateVariants(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "profile_full.jpg")
	writeJPEG(t, src, 900, 1500)

	results, err := GenerateVariants(src, dir, DefaultVariants, DefaultQuality)
	if err != nil {
		t.Fatalf("GenerateVariants() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	w, h := imageSize(t, filepath.Join(dir, "profile.jpg"))
	if w != 360 || h != 600 {
		t.Errorf("profile.jpg = %dx%d, want 360x600", w, h)
	}
	// 1500px source is taller than 1200: downscaled.
	w, h = imageSize(t, filepath.Join(dir, "profile@2x.jpg"))
	if w != 720 || h != 1200 {
		t.Errorf("profile@2x.jpg = %dx%d, want 720x1200", w, h)
	}

	if results[0].Bytes <= 0 || results[0].Width != 360 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "profile.jpg.tmp")); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestGenerateVariants_SmallSourceKeepsSize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "profile.jpg")
	writeJPEG(t, src, 300, 500)

	// Overwrites its own source for the 1x variant.
	if _, err := GenerateVariants(src, dir, DefaultVariants, DefaultQuality); err != nil {
		t.Fatalf("GenerateVariants() error = %v", err)
	}

	for _, name := range []string{"profile.jpg", "profile@2x.jpg"} {
		w, h := imageSize(t, filepath.Join(dir, name))
		if w != 300 || h != 500 {
			t.Errorf("%s = %dx%d, want source size 300x500", name, w, h)
		}
	}
}

func TestGenerateVariants_PNGWithAlpha(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "profile_full.png")

	img := image.NewNRGBA(image.Rect(0, 0, 100, 800))
	f, err := os.Create(src)
	if err != nil {
		t.Fatal(err)
	}
	png.Encode(f, img)
	f.Close()

	results, err := GenerateVariants(src, dir, []Variant{{Name: "out.jpg", Height: 600}}, 80)
	if err != nil {
		t.Fatalf("GenerateVariants() error = %v", err)
	}
	if results[0].Height != 600 || results[0].Width != 75 {
		t.Errorf("result = %+v, want 75x600", results[0])
	}
}

func TestGenerateVariants_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := GenerateVariants(filepath.Join(dir, "missing.jpg"), dir, DefaultVariants, DefaultQuality); err == nil {
		t.Error("expected error for missing source")
	}

	src := filepath.Join(dir, "src.jpg")
	writeJPEG(t, src, 10, 10)
	if _, err := GenerateVariants(src, dir, nil, DefaultQuality); err == nil {
		t.Error("expected error for no variants")
	}
	if _, err := GenerateVariants(src, dir, []Variant{{Name: "x.jpg", Height: 0}}, DefaultQuality); err == nil {
		t.Error("expected error for zero height")
	}
	if _, err := GenerateVariants(src, filepath.Join(dir, "no", "such", "dir"), DefaultVariants, DefaultQuality); err == nil {
		t.Error("expected error for missing output directory")
	}
}

func TestOptimize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "profile.jpg")
	dst := filepath.Join(dir, "profile_optimized.jpg")
	writeJPEG(t, src, 640, 480)

	res, err := Optimize(src, dst, DefaultOptimizeOptions())
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	w, h := imageSize(t, dst)
	if w != 300 || h != 300 {
		t.Errorf("optimized = %dx%d, want 300x300", w, h)
	}
	if res.Path != dst || res.Bytes <= 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestOptimize_UpscalesSmallSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tiny.jpg")
	dst := filepath.Join(dir, "out.jpg")
	writeJPEG(t, src, 50, 80)

	if _, err := Optimize(src, dst, OptimizeOptions{Size: 120, Quality: 90}); err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if w, h := imageSize(t, dst); w != 120 || h != 120 {
		t.Errorf("optimized = %dx%d, want 120x120", w, h)
	}
}

func TestOptimize_InvalidSize(t *testing.T) {
	if _, err := Optimize("unused", "unused", OptimizeOptions{Size: 0}); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestSquareCrop(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{640, 480, 480},
		{300, 900, 300},
		{50, 50, 50},
	}

	for _, tt := range tests {
		got := SquareCrop(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))).Bounds()
		if got.Dx() != tt.want || got.Dy() != tt.want {
			t.Errorf("SquareCrop(%dx%d) = %dx%d, want %dx%d", tt.w, tt.h, got.Dx(), got.Dy(), tt.want, tt.want)
		}
	}
}

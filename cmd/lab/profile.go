package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matsen/labsite/internal/config"
	"github.com/matsen/labsite/internal/profile"
	"github.com/spf13/cobra"
)

var (
	variantsInput  string
	variantsOutDir string

	optimizeInput   string
	optimizeOutput  string
	optimizeSize    int
	optimizeSharpen float64
)

func init() {
	profileVariantsCmd.Flags().StringVar(&variantsInput, "input", "", "Source image (default: profile.source, else profile.fallback)")
	profileVariantsCmd.Flags().StringVar(&variantsOutDir, "out-dir", "", "Directory for the variants (default: site root)")

	profileOptimizeCmd.Flags().StringVar(&optimizeInput, "input", "", "Source image (default: profile.optimized.input)")
	profileOptimizeCmd.Flags().StringVar(&optimizeOutput, "output", "", "Output file (default: profile.optimized.output)")
	profileOptimizeCmd.Flags().IntVar(&optimizeSize, "size", 0, "Output width and height in pixels")
	profileOptimizeCmd.Flags().Float64Var(&optimizeSharpen, "sharpen", -1, "Sharpen sigma, 0 disables")

	profileCmd.AddCommand(profileVariantsCmd)
	profileCmd.AddCommand(profileOptimizeCmd)
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Prepare the profile picture",
}

var profileVariantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "Write 1x and 2x profile picture variants",
	Long: `Write 1x and 2x variants of the profile picture.

The source is profile_full.jpg when present, otherwise profile.jpg. Each
variant is resized by height with Lanczos resampling, keeps the full photo
without cropping, and is saved as JPEG. Sources already smaller than a
variant's height are re-encoded at their own size.

Examples:
  lab profile variants
  lab profile variants --input ~/Pictures/portrait.png --out-dir static/img`,
	Args: cobra.NoArgs,
	RunE: runProfileVariants,
}

var profileOptimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Write a square, sharpened thumbnail",
	Long: `Write a square thumbnail of the profile picture.

The largest centered square is cut from the source, resized to --size pixels,
lightly sharpened and saved as JPEG.`,
	Args: cobra.NoArgs,
	RunE: runProfileOptimize,
}

// VariantsResult is the response for the profile variants command.
type VariantsResult struct {
	Status  string           `json:"status"`
	Source  string           `json:"source"`
	Outputs []profile.Result `json:"outputs"`
}

// OptimizeResult is the response for the profile optimize command.
type OptimizeResult struct {
	Status string         `json:"status"`
	Source string         `json:"source"`
	Output profile.Result `json:"output"`
}

// variantsFromConfig converts configured variants to profile variants.
func variantsFromConfig(vs []config.VariantConfig) []profile.Variant {
	out := make([]profile.Variant, len(vs))
	for i, v := range vs {
		out[i] = profile.Variant{Name: v.Name, Height: v.Height}
	}
	return out
}

// imageErrorCode maps a profile error to an exit code.
func imageErrorCode(err error) int {
	if errors.Is(err, fs.ErrNotExist) {
		return ExitConfigError
	}
	return ExitDataError
}

func runProfileVariants(cmd *cobra.Command, args []string) error {
	root, cfg, ok := loadSite()
	if !ok {
		return nil
	}

	src := profile.ResolveSource(root, cfg.Profile.Source, cfg.Profile.Fallback)
	if variantsInput != "" {
		src = config.Resolve(root, variantsInput)
	}
	outDir := root
	if variantsOutDir != "" {
		outDir = config.Resolve(root, variantsOutDir)
	}

	if _, err := os.Stat(src); err != nil {
		fail(ExitConfigError, "source image not found: %s (looked for %s, then %s)",
			src, cfg.Profile.Source, cfg.Profile.Fallback)
		return nil
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		fail(ExitError, "creating output directory: %v", err)
		return nil
	}

	results, err := profile.GenerateVariants(src, outDir, variantsFromConfig(cfg.Profile.Variants), cfg.Profile.Quality)
	if err != nil {
		fail(imageErrorCode(err), "generating variants: %v", err)
		return nil
	}

	if humanOutput {
		for _, r := range results {
			fmt.Printf("Generated %s (%dx%d, %s)\n", filepath.Base(r.Path), r.Width, r.Height, formatBytes(r.Bytes))
		}
	} else {
		outputJSON(VariantsResult{
			Status:  "generated",
			Source:  src,
			Outputs: results,
		})
	}
	return nil
}

func runProfileOptimize(cmd *cobra.Command, args []string) error {
	root, cfg, ok := loadSite()
	if !ok {
		return nil
	}

	oc := cfg.Profile.Optimized
	src := config.Resolve(root, oc.Input)
	if optimizeInput != "" {
		src = config.Resolve(root, optimizeInput)
	}
	dst := config.Resolve(root, oc.Output)
	if optimizeOutput != "" {
		dst = config.Resolve(root, optimizeOutput)
	}

	opts := profile.OptimizeOptions{Size: oc.Size, Quality: oc.Quality, Sharpen: oc.SharpenSigma()}
	if optimizeSize > 0 {
		opts.Size = optimizeSize
	}
	if optimizeSharpen >= 0 {
		opts.Sharpen = optimizeSharpen
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		fail(ExitError, "creating output directory: %v", err)
		return nil
	}

	res, err := profile.Optimize(src, dst, opts)
	if err != nil {
		fail(imageErrorCode(err), "optimizing %s: %v", src, err)
		return nil
	}

	if humanOutput {
		fmt.Printf("Generated %s (%dx%d, %s)\n", filepath.Base(res.Path), res.Width, res.Height, formatBytes(res.Bytes))
	} else {
		outputJSON(OptimizeResult{
			Status: "generated",
			Source: src,
			Output: res,
		})
	}
	return nil
}

// Package config handles labsite configuration and well-known paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFile = "labsite.yml"
	LabsiteDir = ".labsite"
	CacheDir   = "cache"
	DBFile     = "publications.db"
)

// Config represents labsite.yml. Every field is optional; zero values fall
// back to Default().
type Config struct {
	Profile      ProfileConfig      `yaml:"profile" json:"profile"`
	Publications PublicationsConfig `yaml:"publications" json:"publications"`
}

// ProfileConfig configures the profile picture helpers.
type ProfileConfig struct {
	Source    string          `yaml:"source" json:"source"`     // preferred input
	Fallback  string          `yaml:"fallback" json:"fallback"` // used when Source does not exist
	Quality   int             `yaml:"quality" json:"quality"`   // JPEG quality for variants
	Variants  []VariantConfig `yaml:"variants" json:"variants"`
	Optimized OptimizedConfig `yaml:"optimized" json:"optimized"`
}

// VariantConfig is one output of `lab profile variants`.
type VariantConfig struct {
	Name   string `yaml:"name" json:"name"`
	Height int    `yaml:"height" json:"height"`
}

// OptimizedConfig configures the square-crop optimizer.
type OptimizedConfig struct {
	Input   string   `yaml:"input" json:"input"`
	Output  string   `yaml:"output" json:"output"`
	Size    int      `yaml:"size" json:"size"`
	Quality int      `yaml:"quality" json:"quality"`
	Sharpen *float64 `yaml:"sharpen" json:"sharpen"` // nil = default, 0 disables
}

// SharpenSigma returns the configured sharpen sigma, 0 when unset.
func (o OptimizedConfig) SharpenSigma() float64 {
	if o.Sharpen == nil {
		return 0
	}
	return *o.Sharpen
}

// PublicationsConfig configures the spreadsheet converter.
type PublicationsConfig struct {
	Source       string  `yaml:"source" json:"source"`
	Output       string  `yaml:"output" json:"output"`
	SheetKeyword string  `yaml:"sheet_keyword" json:"sheet_keyword"`
	Columns      Columns `yaml:"columns" json:"columns"`
}

// Columns holds 1-based spreadsheet column positions. Zero means default.
type Columns struct {
	Title        int `yaml:"title" json:"title"`
	Type         int `yaml:"type" json:"type"`
	Venue        int `yaml:"venue" json:"venue"`
	Date         int `yaml:"date" json:"date"`
	Authors      int `yaml:"authors" json:"authors"`
	VenueDetail  int `yaml:"venue_detail" json:"venue_detail"`
	ImpactFactor int `yaml:"impact_factor" json:"impact_factor"`
	TopPercent   int `yaml:"top_percent" json:"top_percent"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Profile: ProfileConfig{
			Source:   "profile_full.jpg",
			Fallback: "profile.jpg",
			Quality:  92,
			Variants: []VariantConfig{
				{Name: "profile.jpg", Height: 600},
				{Name: "profile@2x.jpg", Height: 1200},
			},
			Optimized: OptimizedConfig{
				Input:   "profile.jpg",
				Output:  "profile_optimized.jpg",
				Size:    300,
				Quality: 95,
				Sharpen: floatPtr(0.5),
			},
		},
		Publications: PublicationsConfig{
			Source:       filepath.Join("data", "publications_source.xlsx"),
			Output:       filepath.Join("data", "publications.json"),
			SheetKeyword: "논문",
			Columns:      DefaultColumns(),
		},
	}
}

// DefaultColumns returns the column layout of the lab's publication sheet:
// 1 serial, 2 title, 3 type, 4 venue, 5 date, 6 authors, 7 volume/pages,
// 10 impact factor, 11 top percentile.
func DefaultColumns() Columns {
	return Columns{
		Title:        2,
		Type:         3,
		Venue:        4,
		Date:         5,
		Authors:      6,
		VenueDetail:  7,
		ImpactFactor: 10,
		TopPercent:   11,
	}
}

// ConfigPath returns the path to labsite.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, LabsiteDir, CacheDir)
}

// DBPath returns the path to the publications query database.
func DBPath(root string) string {
	return filepath.Join(root, LabsiteDir, CacheDir, DBFile)
}

// Resolve joins a configured path onto root unless it is already absolute.
func Resolve(root, path string) string {
	path = ExpandPath(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

// Load reads labsite.yml from root. A missing file yields Default().
func Load(root string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.merge(file)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge overlays the non-zero fields of o onto c.
func (c *Config) merge(o Config) {
	p, op := &c.Profile, o.Profile
	setString(&p.Source, op.Source)
	setString(&p.Fallback, op.Fallback)
	setInt(&p.Quality, op.Quality)
	if len(op.Variants) > 0 {
		p.Variants = op.Variants
	}
	setString(&p.Optimized.Input, op.Optimized.Input)
	setString(&p.Optimized.Output, op.Optimized.Output)
	setInt(&p.Optimized.Size, op.Optimized.Size)
	setInt(&p.Optimized.Quality, op.Optimized.Quality)
	if op.Optimized.Sharpen != nil {
		p.Optimized.Sharpen = floatPtr(*op.Optimized.Sharpen)
	}

	pub, opub := &c.Publications, o.Publications
	setString(&pub.Source, opub.Source)
	setString(&pub.Output, opub.Output)
	setString(&pub.SheetKeyword, opub.SheetKeyword)
	cols, ocols := &pub.Columns, opub.Columns
	setInt(&cols.Title, ocols.Title)
	setInt(&cols.Type, ocols.Type)
	setInt(&cols.Venue, ocols.Venue)
	setInt(&cols.Date, ocols.Date)
	setInt(&cols.Authors, ocols.Authors)
	setInt(&cols.VenueDetail, ocols.VenueDetail)
	setInt(&cols.ImpactFactor, ocols.ImpactFactor)
	setInt(&cols.TopPercent, ocols.TopPercent)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func floatPtr(v float64) *float64 { return &v }

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Validate checks value ranges that would otherwise fail deep inside an encoder.
func (c *Config) Validate() error {
	if err := validateQuality("profile.quality", c.Profile.Quality); err != nil {
		return err
	}
	if err := validateQuality("profile.optimized.quality", c.Profile.Optimized.Quality); err != nil {
		return err
	}
	if c.Profile.Optimized.Size < 0 {
		return fmt.Errorf("profile.optimized.size must be positive, got %d", c.Profile.Optimized.Size)
	}
	if s := c.Profile.Optimized.SharpenSigma(); s < 0 {
		return fmt.Errorf("profile.optimized.sharpen must not be negative, got %g", s)
	}

	seen := make(map[string]bool)
	for i, v := range c.Profile.Variants {
		if v.Name == "" {
			return fmt.Errorf("profile.variants[%d]: missing name", i)
		}
		if v.Height <= 0 {
			return fmt.Errorf("profile.variants[%d] (%s): height must be positive", i, v.Name)
		}
		if seen[v.Name] {
			return fmt.Errorf("profile.variants[%d]: duplicate name %s", i, v.Name)
		}
		seen[v.Name] = true
	}

	cols := c.Publications.Columns
	for name, v := range map[string]int{
		"title": cols.Title, "type": cols.Type, "venue": cols.Venue, "date": cols.Date,
		"authors": cols.Authors, "venue_detail": cols.VenueDetail,
		"impact_factor": cols.ImpactFactor, "top_percent": cols.TopPercent,
	} {
		if v < 0 {
			return fmt.Errorf("publications.columns.%s must be a 1-based column, got %d", name, v)
		}
	}
	return nil
}

func validateQuality(key string, q int) error {
	if q < 1 || q > 100 {
		return fmt.Errorf("%s must be between 1 and 100, got %d", key, q)
	}
	return nil
}

// Keys lists the scalar keys accepted by Lookup, in display order.
var Keys = []string{
	"profile.source",
	"profile.fallback",
	"profile.quality",
	"profile.optimized.input",
	"profile.optimized.output",
	"profile.optimized.size",
	"profile.optimized.quality",
	"profile.optimized.sharpen",
	"publications.source",
	"publications.output",
	"publications.sheet_keyword",
}

// Lookup returns a scalar configuration value by dotted key. Dashes and
// underscores are interchangeable.
func (c *Config) Lookup(key string) (string, bool) {
	key = strings.ReplaceAll(strings.ToLower(key), "-", "_")
	switch key {
	case "profile.source":
		return c.Profile.Source, true
	case "profile.fallback":
		return c.Profile.Fallback, true
	case "profile.quality":
		return strconv.Itoa(c.Profile.Quality), true
	case "profile.optimized.input":
		return c.Profile.Optimized.Input, true
	case "profile.optimized.output":
		return c.Profile.Optimized.Output, true
	case "profile.optimized.size":
		return strconv.Itoa(c.Profile.Optimized.Size), true
	case "profile.optimized.quality":
		return strconv.Itoa(c.Profile.Optimized.Quality), true
	case "profile.optimized.sharpen":
		return strconv.FormatFloat(c.Profile.Optimized.SharpenSigma(), 'g', -1, 64), true
	case "publications.source":
		return c.Publications.Source, true
	case "publications.output":
		return c.Publications.Output, true
	case "publications.sheet_keyword":
		return c.Publications.SheetKeyword, true
	}
	return "", false
}

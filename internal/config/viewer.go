package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/pointview/internal/fsutil"
)

// DefaultConfigPath is the path to the canonical viewer defaults file.
const DefaultConfigPath = "config/viewer.defaults.json"

// Framing formulas accepted by framing_formula.
const (
	FormulaObserved = "observed"
	FormulaStandard = "standard"
)

// ViewerConfig is the root configuration for a pointview session.
// Every field is optional; the Get* accessors supply the fallback so a
// partial file (or no file at all) is always usable.
type ViewerConfig struct {
	// Data source
	Source       *string `json:"source,omitempty"`        // http(s)://, file:// or a bare path
	FetchTimeout *string `json:"fetch_timeout,omitempty"` // duration string like "10s"; empty means no timeout
	MaxBytes     *int64  `json:"max_bytes,omitempty"`

	// Camera
	FOVDeg         *float64    `json:"fov_deg,omitempty"`
	Near           *float64    `json:"near,omitempty"`
	Far            *float64    `json:"far,omitempty"`
	InitialCameraZ *float64    `json:"initial_camera_z,omitempty"`
	LookAtOffset   *[3]float64 `json:"look_at_offset,omitempty"`
	FramingFormula *string     `json:"framing_formula,omitempty"`

	// Point style
	PointColor *string  `json:"point_color,omitempty"` // "#rrggbb"
	PointSize  *float64 `json:"point_size,omitempty"`

	// Output
	ViewportWidth  *int    `json:"viewport_width,omitempty"`
	ViewportHeight *int    `json:"viewport_height,omitempty"`
	Listen         *string `json:"listen,omitempty"`
	SnapshotPath   *string `json:"snapshot_path,omitempty"`
}

// EmptyViewerConfig returns a ViewerConfig with every field nil.
func EmptyViewerConfig() *ViewerConfig {
	return &ViewerConfig{}
}

// LoadViewerConfig loads a ViewerConfig from a JSON file on disk.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	return LoadViewerConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadViewerConfigFS loads a ViewerConfig from a JSON file in fsys.
// The path must have a .json extension and the file must be under 1MB.
func LoadViewerConfigFS(fsys fsutil.FileSystem, path string) (*ViewerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyViewerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ViewerConfig) Validate() error {
	if c.FOVDeg != nil {
		if *c.FOVDeg <= 0 || *c.FOVDeg >= 180 {
			return fmt.Errorf("fov_deg must be in (0, 180), got %f", *c.FOVDeg)
		}
	}

	near, far := c.GetNear(), c.GetFar()
	if near <= 0 {
		return fmt.Errorf("near must be positive, got %f", near)
	}
	if far <= near {
		return fmt.Errorf("far (%f) must be greater than near (%f)", far, near)
	}

	if c.FetchTimeout != nil && *c.FetchTimeout != "" {
		d, err := time.ParseDuration(*c.FetchTimeout)
		if err != nil {
			return fmt.Errorf("invalid fetch_timeout '%s': %w", *c.FetchTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("fetch_timeout must be non-negative, got %s", d)
		}
	}

	if c.MaxBytes != nil && *c.MaxBytes <= 0 {
		return fmt.Errorf("max_bytes must be positive, got %d", *c.MaxBytes)
	}

	if c.FramingFormula != nil {
		switch *c.FramingFormula {
		case FormulaObserved, FormulaStandard:
		default:
			return fmt.Errorf("framing_formula must be %q or %q, got %q", FormulaObserved, FormulaStandard, *c.FramingFormula)
		}
	}

	if c.PointColor != nil {
		if _, err := ParseHexColor(*c.PointColor); err != nil {
			return fmt.Errorf("invalid point_color: %w", err)
		}
	}

	if c.PointSize != nil && *c.PointSize <= 0 {
		return fmt.Errorf("point_size must be positive, got %f", *c.PointSize)
	}

	if c.ViewportWidth != nil && *c.ViewportWidth <= 0 {
		return fmt.Errorf("viewport_width must be positive, got %d", *c.ViewportWidth)
	}
	if c.ViewportHeight != nil && *c.ViewportHeight <= 0 {
		return fmt.Errorf("viewport_height must be positive, got %d", *c.ViewportHeight)
	}

	return nil
}

// GetSource returns the data source or the default.
func (c *ViewerConfig) GetSource() string {
	if c.Source == nil || *c.Source == "" {
		return "output.csv"
	}
	return *c.Source
}

// GetFetchTimeout parses and returns FetchTimeout. Zero means no timeout.
func (c *ViewerConfig) GetFetchTimeout() time.Duration {
	if c.FetchTimeout == nil || *c.FetchTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.FetchTimeout)
	if err != nil {
		return 0
	}
	return d
}

// GetMaxBytes returns the largest accepted data body in bytes.
func (c *ViewerConfig) GetMaxBytes() int64 {
	if c.MaxBytes == nil {
		return 64 << 20
	}
	return *c.MaxBytes
}

// GetFOVDeg returns the vertical field of view in degrees.
func (c *ViewerConfig) GetFOVDeg() float64 {
	if c.FOVDeg == nil {
		return 75
	}
	return *c.FOVDeg
}

// GetNear returns the near clipping plane distance.
func (c *ViewerConfig) GetNear() float64 {
	if c.Near == nil {
		return 0.1
	}
	return *c.Near
}

// GetFar returns the far clipping plane distance.
func (c *ViewerConfig) GetFar() float64 {
	if c.Far == nil {
		return 1000
	}
	return *c.Far
}

// GetInitialCameraZ returns the camera's z position before framing.
func (c *ViewerConfig) GetInitialCameraZ() float64 {
	if c.InitialCameraZ == nil {
		return 5
	}
	return *c.InitialCameraZ
}

// GetLookAtOffset returns the manual correction added to the framed target.
func (c *ViewerConfig) GetLookAtOffset() [3]float64 {
	if c.LookAtOffset == nil {
		return [3]float64{50, 0, 0}
	}
	return *c.LookAtOffset
}

// GetFramingFormula returns the camera distance formula name.
func (c *ViewerConfig) GetFramingFormula() string {
	if c.FramingFormula == nil || *c.FramingFormula == "" {
		return FormulaObserved
	}
	return *c.FramingFormula
}

// GetPointColor returns the point colour, falling back to red.
func (c *ViewerConfig) GetPointColor() color.RGBA {
	red := color.RGBA{R: 0xff, A: 0xff}
	if c.PointColor == nil {
		return red
	}
	col, err := ParseHexColor(*c.PointColor)
	if err != nil {
		return red
	}
	return col
}

// GetPointSize returns the point size in scene units.
func (c *ViewerConfig) GetPointSize() float64 {
	if c.PointSize == nil {
		return 0.1
	}
	return *c.PointSize
}

// GetViewportWidth returns the render width in pixels.
func (c *ViewerConfig) GetViewportWidth() int {
	if c.ViewportWidth == nil {
		return 1280
	}
	return *c.ViewportWidth
}

// GetViewportHeight returns the render height in pixels.
func (c *ViewerConfig) GetViewportHeight() int {
	if c.ViewportHeight == nil {
		return 720
	}
	return *c.ViewportHeight
}

// GetListen returns the HTTP listen address.
func (c *ViewerConfig) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return "localhost:8090"
	}
	return *c.Listen
}

// GetSnapshotPath returns where a rendered PNG is written, or "" to skip.
func (c *ViewerConfig) GetSnapshotPath() string {
	if c.SnapshotPath == nil {
		return ""
	}
	return *c.SnapshotPath
}

// ParseHexColor parses "#rrggbb" (the leading '#' is optional) into an
// opaque colour.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("colour %q must have 6 hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Package config holds the render settings shared by the tinyraster
// commands. Settings come from defaults, then an optional JSON file, then
// command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/render"
)

// CheckerTexture selects the procedural checkerboard instead of a file.
const CheckerTexture = "checker"

// FitRadius is the radius of the sphere enclosing a model after it has
// been fitted to the [-1,1] cube. The eye must stay outside it.
var FitRadius = math.Sqrt(3)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds the camera, lighting and output settings for one render.
type Config struct {
	// Frame
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Depth  float64 `json:"depth"`

	// Camera
	Eye    [3]float64 `json:"eye"`
	Center [3]float64 `json:"center"`
	Up     [3]float64 `json:"up"`
	Yaw    float64    `json:"yaw_degrees"`

	// Shading
	Light      [3]float64 `json:"light"`
	Lighting   string     `json:"lighting"`
	Color      string     `json:"color"`
	Background string     `json:"background"`
	Texture    string     `json:"texture"`
	Wrap       string     `json:"wrap"`

	// Output
	Output      string `json:"output"`
	DepthOutput string `json:"depth_output"`
	Scale       int    `json:"scale"`
}

// Default returns the settings used when nothing else is given.
func Default() Config {
	return Config{
		Width:      800,
		Height:     800,
		Depth:      255,
		Eye:        [3]float64{1, 1, 3},
		Up:         [3]float64{0, 1, 0},
		Light:      [3]float64{0, 0, 1},
		Lighting:   render.LightingFace.String(),
		Color:      "#ffffff",
		Background: "#000000",
		Wrap:       render.WrapClamp.String(),
		Output:     "output.tga",
		Scale:      1,
	}
}

// Load reads a JSON config file over Default. Fields missing from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
// Zero values leave the file setting alone.
type Flags struct {
	Width       int
	Height      int
	Output      string
	DepthOutput string
	Texture     string
	Lighting    string
	Wrap        string
	Color       string
	Background  string
	Scale       int
	Yaw         float64
}

// Resolve applies non-zero flags over c.
func (c *Config) Resolve(flags Flags) {
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Output != "" {
		c.Output = flags.Output
	}
	if flags.DepthOutput != "" {
		c.DepthOutput = flags.DepthOutput
	}
	if flags.Texture != "" {
		c.Texture = flags.Texture
	}
	if flags.Lighting != "" {
		c.Lighting = flags.Lighting
	}
	if flags.Wrap != "" {
		c.Wrap = flags.Wrap
	}
	if flags.Color != "" {
		c.Color = flags.Color
	}
	if flags.Background != "" {
		c.Background = flags.Background
	}
	if flags.Scale > 0 {
		c.Scale = flags.Scale
	}
	if flags.Yaw != 0 {
		c.Yaw = flags.Yaw
	}
}

// Validate reports the first setting that cannot be rendered.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height)
	case !(c.Depth > 0):
		return fmt.Errorf("%w: depth %v", ErrInvalid, c.Depth)
	case c.Scale < 1:
		return fmt.Errorf("%w: scale %d", ErrInvalid, c.Scale)
	case c.Eye == c.Center:
		return fmt.Errorf("%w: eye and center coincide", ErrInvalid)
	case vec(c.Eye).Len() <= FitRadius:
		return fmt.Errorf("%w: eye %v is inside the fitted model (radius %.3f)", ErrInvalid, c.Eye, FitRadius)
	case c.Output == "":
		return fmt.Errorf("%w: empty output path", ErrInvalid)
	}
	if _, err := c.LightingMode(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.WrapMode(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := ParseColor(c.Color); err != nil {
		return fmt.Errorf("%w: color: %w", ErrInvalid, err)
	}
	if _, err := ParseColor(c.Background); err != nil {
		return fmt.Errorf("%w: background: %w", ErrInvalid, err)
	}
	return nil
}

// Camera builds the camera described by c.
func (c Config) Camera() *render.Camera {
	cam := render.NewCamera(vec(c.Eye))
	cam.Center = vec(c.Center)
	cam.Up = vec(c.Up)
	cam.Yaw = c.Yaw * math.Pi / 180
	return cam
}

// LightDir returns the direction towards the light.
func (c Config) LightDir() math3d.Vec3 {
	return vec(c.Light)
}

// LightingMode parses the lighting setting.
func (c Config) LightingMode() (render.Lighting, error) {
	return render.ParseLighting(c.Lighting)
}

// WrapMode parses the texture wrap setting.
func (c Config) WrapMode() (render.WrapMode, error) {
	return render.ParseWrapMode(c.Wrap)
}

// FillColor returns the flat model color.
func (c Config) FillColor() render.Color {
	col, _ := ParseColor(c.Color)
	return col
}

// BackgroundColor returns the clear color.
func (c Config) BackgroundColor() render.Color {
	col, _ := ParseColor(c.Background)
	return col
}

// ParseColor parses "#rrggbb" or "#rrggbbaa". The leading '#' is optional.
func ParseColor(s string) (render.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	var r, g, b, a uint8
	switch len(hex) {
	case 6:
		a = 255
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return render.Color{}, fmt.Errorf("parse color %q: %w", s, err)
		}
	case 8:
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
			return render.Color{}, fmt.Errorf("parse color %q: %w", s, err)
		}
	default:
		return render.Color{}, fmt.Errorf("parse color %q: want #rrggbb", s)
	}
	return render.RGBA(r, g, b, a), nil
}

func vec(a [3]float64) math3d.Vec3 {
	return math3d.V3(a[0], a[1], a[2])
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taigrr/tinyraster/internal/config"
	"github.com/taigrr/tinyraster/pkg/imageio"
	"github.com/taigrr/tinyraster/pkg/render"
)

const cubeOBJ = `# unit cube
v -1 -1 -1
v  1 -1 -1
v  1  1 -1
v -1  1 -1
v -1 -1  1
v  1 -1  1
v  1  1  1
v -1  1  1
f 5 6 7 8
f 2 1 4 3
f 1 5 8 4
f 6 2 3 7
f 8 7 3 4
f 1 2 6 5
`

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cube.obj")
	if err := os.WriteFile(path, []byte(cubeOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T, out string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Width, cfg.Height = 64, 48
	cfg.Output = out
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestRunRender(t *testing.T) {
	model := writeModel(t)
	dir := t.TempDir()

	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"face lit", func(c *config.Config) {}},
		{"vertex lit", func(c *config.Config) { c.Lighting = "vertex" }},
		{"checker unlit", func(c *config.Config) { c.Texture = config.CheckerTexture; c.Lighting = "none" }},
		{"scaled", func(c *config.Config) { c.Scale = 2 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := filepath.Join(dir, strings.ReplaceAll(tc.name, " ", "_")+".png")
			cfg := testConfig(t, out)
			cfg.DepthOutput = filepath.Join(dir, strings.ReplaceAll(tc.name, " ", "_")+"-depth.png")
			tc.modify(&cfg)

			if err := runRender(cfg, model); err != nil {
				t.Fatalf("runRender: %v", err)
			}

			for _, path := range []string{cfg.Output, cfg.DepthOutput} {
				img, err := imageio.Load(path)
				if err != nil {
					t.Fatalf("load %s: %v", path, err)
				}
				b := img.Bounds()
				if b.Dx() != cfg.Width*cfg.Scale || b.Dy() != cfg.Height*cfg.Scale {
					t.Errorf("%s is %dx%d", filepath.Base(path), b.Dx(), b.Dy())
				}
			}

			img, _ := imageio.Load(cfg.Output)
			cx, cy := cfg.Width*cfg.Scale/2, cfg.Height*cfg.Scale/2
			if r, g, b, _ := img.At(cx, cy).RGBA(); r == 0 && g == 0 && b == 0 {
				t.Error("centre pixel is background; the cube was not drawn")
			}
			if r, g, b, _ := img.At(0, 0).RGBA(); r != 0 || g != 0 || b != 0 {
				t.Error("corner pixel is not background")
			}
		})
	}
}

func TestRunRenderErrors(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "out.png"))

	if err := runRender(cfg, filepath.Join(t.TempDir(), "missing.obj")); err == nil {
		t.Error("expected error for missing model")
	}
	if err := runRender(cfg, "model.fbx"); err == nil {
		t.Error("expected error for unsupported model format")
	}

	cfg.Output = filepath.Join(t.TempDir(), "out.gif")
	if err := runRender(cfg, writeModel(t)); err == nil {
		t.Error("expected error for unsupported image format")
	}
}

func TestRunWireframe(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "wire.tga"))
	if err := runWireframe(cfg, writeModel(t)); err != nil {
		t.Fatalf("runWireframe: %v", err)
	}
	if _, err := imageio.Load(cfg.Output); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestRunInfo(t *testing.T) {
	var buf bytes.Buffer
	if err := runInfo(&buf, writeModel(t)); err != nil {
		t.Fatalf("runInfo: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Format:     OBJ", "Positions:  8", "Triangles:  12", "Dimensions: 2.000 x 2.000 x 2.000"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output missing %q:\n%s", want, out)
		}
	}
}

func TestTextureFor(t *testing.T) {
	cfg := config.Default()

	s, err := textureFor(cfg, nil)
	if err != nil || s != nil {
		t.Errorf("no texture: got %v, %v", s, err)
	}

	cfg.Texture = config.CheckerTexture
	cfg.Wrap = "repeat"
	s, err = textureFor(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tex, ok := s.(*render.Texture); !ok || tex.Wrap != render.WrapRepeat {
		t.Errorf("checker: got %T %+v", s, s)
	}

	cfg.Texture = filepath.Join(t.TempDir(), "missing.png")
	if _, err := textureFor(cfg, nil); err == nil {
		t.Error("expected error for missing texture file")
	}
}

func TestDrawPreview(t *testing.T) {
	mesh, _, err := loadModel(writeModel(t))
	if err != nil {
		t.Fatal(err)
	}
	frame, err := previewFrame(40, 20)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Color.Height != 40 {
		t.Fatalf("preview frame height %d, want two rows per cell", frame.Color.Height)
	}

	cfg := config.Default()
	cam := cfg.Camera()
	opts := render.Options{Color: render.ColorWhite, Light: cfg.LightDir(), Lighting: render.LightingFace}

	stats := drawPreview(frame, cam, mesh, opts, cfg, false)
	if stats.Written == 0 {
		t.Error("solid preview wrote no pixels")
	}

	cam.Rotate(0.5)
	if stats := drawPreview(frame, cam, mesh, opts, cfg, true); stats.Written != 0 {
		t.Error("wireframe preview should not touch raster stats")
	}
}

func TestSpinSettles(t *testing.T) {
	s := newSpin(30)
	s.velocity = 1
	total := 0.0
	for range 300 {
		total += s.step()
	}
	if s.velocity > 1e-3 || s.velocity < -1e-3 {
		t.Errorf("velocity %v did not settle", s.velocity)
	}
	if total <= 1 {
		t.Errorf("total spin %v, want more than the first step", total)
	}
}

func TestPrepareNormals(t *testing.T) {
	tests := []struct {
		lighting render.Lighting
		smooth   bool
	}{
		{render.LightingVertex, true},
		{render.LightingFace, false},
		{render.LightingNone, false},
	}

	for _, tc := range tests {
		t.Run(tc.lighting.String(), func(t *testing.T) {
			mesh, _, err := loadModel(writeModel(t))
			if err != nil {
				t.Fatal(err)
			}
			if got := prepareNormals(mesh, tc.lighting); got != tc.smooth {
				t.Fatalf("prepareNormals = %v, want %v", got, tc.smooth)
			}
			if !tc.smooth {
				if len(mesh.Normals) != mesh.FaceCount() {
					t.Errorf("got %d normals, want the loader's %d face normals", len(mesh.Normals), mesh.FaceCount())
				}
				return
			}
			if len(mesh.Normals) != mesh.PositionCount() {
				t.Fatalf("got %d normals, want one per position (%d)", len(mesh.Normals), mesh.PositionCount())
			}
			for i := range mesh.FaceCount() {
				pos, _, norm := mesh.FaceIndices(i)
				if pos != norm {
					t.Errorf("face %d normal indices %v, want position indices %v", i, norm, pos)
				}
			}
		})
	}
}

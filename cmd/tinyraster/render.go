package main

import (
	"fmt"
	"image"
	"path/filepath"

	"fortio.org/log"
	"github.com/spf13/cobra"
	"github.com/taigrr/tinyraster/internal/config"
	"github.com/taigrr/tinyraster/pkg/imageio"
	"github.com/taigrr/tinyraster/pkg/models"
	"github.com/taigrr/tinyraster/pkg/render"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <model.obj|model.stl|model.glb>",
		Short: "Render a shaded image",
		Long: `Render a model to an image file.

The model is centred and scaled to the unit cube, drawn with the depth
buffer and shaded with a single directional light. The output format
follows the file extension: .tga, .png, .webp, .bmp or .jpg.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runRender(cfg, args[0])
		},
	}

	addFrameFlags(cmd)
	f := cmd.Flags()
	f.StringVarP(&flags.Output, "output", "o", "", "Output image (default output.tga)")
	f.StringVar(&flags.DepthOutput, "depth-output", "", "Also write the depth buffer as a grayscale image")
	f.StringVar(&flags.Texture, "texture", "", `Texture image, or "checker"`)
	f.StringVar(&flags.Lighting, "lighting", "", "Lighting: none, face or vertex (default face)")
	f.StringVar(&flags.Wrap, "wrap", "", "Texture wrap: clamp or repeat (default clamp)")
	f.IntVar(&flags.Scale, "scale", 0, "Integer upscale factor for the written image")

	return cmd
}

// loadModel reads a model and fits it to the unit cube.
func loadModel(path string) (*models.Mesh, image.Image, error) {
	mesh, img, err := models.Load(path)
	if err != nil {
		return nil, nil, err
	}
	mesh.FitUnitCube()
	log.LogVf("model %s: %d positions, %d triangles", filepath.Base(path), mesh.PositionCount(), mesh.TriangleCount())
	return mesh, img, nil
}

// prepareNormals makes sure vertex lighting has per-vertex normals to
// interpolate and reports whether it had to generate them.
func prepareNormals(mesh *models.Mesh, lighting render.Lighting) bool {
	return lighting == render.LightingVertex && mesh.EnsureVertexNormals()
}

// textureFor picks the sampler: an explicit texture setting first, then a
// texture embedded in the model. A nil result means flat color.
func textureFor(cfg config.Config, embedded image.Image) (render.Sampler, error) {
	wrap, err := cfg.WrapMode()
	if err != nil {
		return nil, err
	}

	var tex *render.Texture
	switch {
	case cfg.Texture == config.CheckerTexture:
		tex = render.NewCheckerTexture(64, 64, 8, cfg.FillColor(), render.ColorGray)
	case cfg.Texture != "":
		if tex, err = render.LoadTexture(cfg.Texture); err != nil {
			return nil, err
		}
	case embedded != nil:
		tex = render.TextureFromImage(embedded)
		tex.FlipVertically()
	default:
		return nil, nil
	}

	tex.Wrap = wrap
	log.LogVf("texture: %dx%d wrap %s", tex.Width, tex.Height, wrap)
	return tex, nil
}

func runRender(cfg config.Config, modelPath string) error {
	mesh, embedded, err := loadModel(modelPath)
	if err != nil {
		return err
	}

	lighting, err := cfg.LightingMode()
	if err != nil {
		return err
	}
	if prepareNormals(mesh, lighting) {
		log.Infof("%s has no vertex normals, generated smooth normals", filepath.Base(modelPath))
	}

	sampler, err := textureFor(cfg, embedded)
	if err != nil {
		return err
	}

	frame, err := render.NewFrame(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	frame.Clear(cfg.BackgroundColor())

	r := render.NewRenderer(frame, render.NewTransform(cfg.Camera(), cfg.Width, cfg.Height, cfg.Depth))
	stats := r.DrawMesh(mesh, render.Options{
		Texture:  sampler,
		Color:    cfg.FillColor(),
		Light:    cfg.LightDir(),
		Lighting: lighting,
	})
	log.LogVf("raster: %d triangles, %d candidates, %d degenerate, %d depth rejected, %d written",
		stats.Triangles, stats.Candidates, stats.Degenerate, stats.DepthRejected, stats.Written)

	frame.Color.FlipVertically()
	if err := imageio.Save(cfg.Output, imageio.Scale(frame.Color.ToImage(), cfg.Scale)); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Output, err)
	}

	if cfg.DepthOutput != "" {
		depth := imageio.Scale(frame.Depth.ToImage(cfg.Depth), cfg.Scale)
		if err := imageio.Save(cfg.DepthOutput, depth); err != nil {
			return fmt.Errorf("write %s: %w", cfg.DepthOutput, err)
		}
	}

	log.Infof("Wrote %s (%dx%d, %d triangles, %d pixels)",
		cfg.Output, cfg.Width*cfg.Scale, cfg.Height*cfg.Scale, stats.Triangles, stats.Written)
	return nil
}

func newWireframeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wireframe <model.obj|model.stl|model.glb>",
		Short: "Render mesh edges",
		Long:  "Draw the three edges of every face with the line drawer. There is no depth test.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runWireframe(cfg, args[0])
		},
	}

	addFrameFlags(cmd)
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Output image (default output.tga)")
	cmd.Flags().IntVar(&flags.Scale, "scale", 0, "Integer upscale factor for the written image")

	return cmd
}

func runWireframe(cfg config.Config, modelPath string) error {
	mesh, _, err := loadModel(modelPath)
	if err != nil {
		return err
	}

	fb := render.NewFramebuffer(cfg.Width, cfg.Height)
	fb.Clear(cfg.BackgroundColor())

	w := render.NewWireframe(render.NewTransform(cfg.Camera(), cfg.Width, cfg.Height, cfg.Depth), fb)
	segments := w.DrawMesh(mesh, cfg.FillColor())

	fb.FlipVertically()
	if err := imageio.Save(cfg.Output, imageio.Scale(fb.ToImage(), cfg.Scale)); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Output, err)
	}

	log.Infof("Wrote %s (%d segments)", cfg.Output, segments)
	return nil
}

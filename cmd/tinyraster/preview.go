package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fortio.org/log"
	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"
	"github.com/taigrr/tinyraster/internal/config"
	"github.com/taigrr/tinyraster/pkg/models"
	"github.com/taigrr/tinyraster/pkg/render"
)

var targetFPS int

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <model.obj|model.stl|model.glb>",
		Short: "Spin the model in the terminal",
		Long: `Render the model into the terminal with half-block cells.

Controls:
  Left/Right, A/D  - Spin
  Space            - Toggle wireframe
  R                - Reset
  Esc, Q           - Quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runPreview(cfg, args[0])
		},
	}

	cmd.Flags().IntVar(&targetFPS, "fps", 30, "Target FPS")
	cmd.Flags().StringVar(&flags.Texture, "texture", "", `Texture image, or "checker"`)
	cmd.Flags().StringVar(&flags.Lighting, "lighting", "", "Lighting: none, face or vertex (default face)")
	cmd.Flags().StringVar(&flags.Color, "color", "", "Model color as #rrggbb")
	cmd.Flags().StringVar(&flags.Background, "bg", "", "Background color as #rrggbb")

	return cmd
}

// spin tracks the yaw velocity and lets a critically damped spring bring
// it back to rest.
type spin struct {
	velocity float64
	accel    float64
	spring   harmonica.Spring
}

func newSpin(fps int) spin {
	return spin{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

// step returns the angle to turn this frame and decays the velocity.
func (s *spin) step() float64 {
	delta := s.velocity
	s.velocity, s.accel = s.spring.Update(s.velocity, s.accel, 0)
	return delta
}

// previewFrame allocates a frame covering a terminal of width×height
// cells. Each cell holds two pixel rows.
func previewFrame(width, height int) (*render.Frame, error) {
	return render.NewFrame(width, height*2)
}

func runPreview(cfg config.Config, modelPath string) error {
	if targetFPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", targetFPS)
	}

	mesh, embedded, err := loadModel(modelPath)
	if err != nil {
		return err
	}
	lighting, err := cfg.LightingMode()
	if err != nil {
		return err
	}
	prepareNormals(mesh, lighting)
	sampler, err := textureFor(cfg, embedded)
	if err != nil {
		return err
	}
	opts := render.Options{
		Texture:  sampler,
		Color:    cfg.FillColor(),
		Light:    cfg.LightDir(),
		Lighting: lighting,
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	frame, err := previewFrame(width, height)
	if err != nil {
		return err
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cam := cfg.Camera()
	rot := newSpin(targetFPS)
	wireframe := false
	const impulse = 0.08

	events := make(chan uv.Event)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		if err := term.Shutdown(context.Background()); err != nil {
			log.Warnf("terminal shutdown: %v", err)
		}
	}
	defer cleanup()

	ticker := time.NewTicker(time.Second / time.Duration(targetFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				if frame, err = previewFrame(width, height); err != nil {
					return err
				}
			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "q", "ctrl+c"):
					return nil
				case ev.MatchString("left", "a"):
					rot.velocity -= impulse
				case ev.MatchString("right", "d"):
					rot.velocity += impulse
				case ev.MatchString("space"):
					wireframe = !wireframe
				case ev.MatchString("r"):
					rot = newSpin(targetFPS)
					cam.Yaw = cfg.Camera().Yaw
				}
			}

		case <-ticker.C:
			cam.Rotate(rot.step())
			drawPreview(frame, cam, mesh, opts, cfg, wireframe)

			frame.Color.Draw(term, uv.Rectangle(image.Rect(0, 0, width, height)))
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}

// drawPreview renders one frame. The framebuffer keeps its bottom-left
// origin; Draw reads rows top-down.
func drawPreview(frame *render.Frame, cam *render.Camera, mesh *models.Mesh, opts render.Options, cfg config.Config, wireframe bool) render.Stats {
	w, h := frame.Color.Width, frame.Color.Height
	frame.Clear(cfg.BackgroundColor())
	t := render.NewTransform(cam, w, h, cfg.Depth)

	if wireframe {
		render.NewWireframe(t, frame.Color).DrawMesh(mesh, opts.Color)
		return render.Stats{}
	}
	return render.NewRenderer(frame, t).DrawMesh(mesh, opts)
}

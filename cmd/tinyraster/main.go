// tinyraster - software triangle rasterizer
// Renders OBJ, STL and glTF models to image files or the terminal with a
// barycentric rasterizer, a depth buffer and Lambert shading.
//
// Commands:
//
//	render <model>     - Shaded image (format from the output extension)
//	wireframe <model>  - Edges only, no depth test
//	info <model>       - Counts, bounds and index validation
//	preview <model>    - Spin the model in the terminal
package main

import (
	"context"
	"os"

	"fortio.org/log"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/taigrr/tinyraster/internal/config"
)

var (
	configPath string
	verbose    bool
	flags      config.Flags
)

func main() {
	root := &cobra.Command{
		Use:   "tinyraster",
		Short: "Software triangle rasterizer",
		Long: `tinyraster - software triangle rasterizer

Renders OBJ, STL and glTF/GLB models with a barycentric rasterizer,
a depth buffer, nearest-neighbour texturing and Lambert shading.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLogLevel(log.Verbose)
			}
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "JSON settings file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log per-draw statistics")

	root.AddCommand(
		newRenderCmd(),
		newWireframeCmd(),
		newInfoCmd(),
		newPreviewCmd(),
	)

	if err := fang.Execute(context.Background(), root); err != nil {
		os.Exit(1)
	}
}

// addFrameFlags registers the flags shared by the drawing commands.
func addFrameFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&flags.Width, "width", 0, "Frame width in pixels (default 800)")
	f.IntVar(&flags.Height, "height", 0, "Frame height in pixels (default 800)")
	f.StringVar(&flags.Color, "color", "", "Model color as #rrggbb")
	f.StringVar(&flags.Background, "bg", "", "Background color as #rrggbb")
	f.Float64Var(&flags.Yaw, "yaw", 0, "Spin the model about the vertical axis, in degrees")
}

// loadConfig layers the config file and flags over the defaults.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	log.LogVf("config: %dx%d depth %v eye %v lighting %s", cfg.Width, cfg.Height, cfg.Depth, cfg.Eye, cfg.Lighting)
	return cfg, nil
}

package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carlzeiss/czi/accessor"
	"github.com/carlzeiss/czi/cache"
	"github.com/carlzeiss/czi/directory"
	"github.com/carlzeiss/czi/format"
	"github.com/carlzeiss/czi/libconfig"
)

// NewRenderCmd builds "czitool render <file>": composes a tile through one
// of the three accessors and writes a tiny raw pixel dump (width, height as
// little-endian uint32, followed by the pixel bytes) to --out.
func NewRenderCmd() *cobra.Command {
	var (
		plane              string
		roiFlag            string
		mode               string
		layer              int32
		minificationFactor int32
		zoom               float64
		out                string
		visibility         bool
		border             bool
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a tile through the layer0, pyramid, or scaling accessor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeAll, err := openReader(args[0])
			if err != nil {
				return err
			}
			defer closeAll()

			planeCoord, err := parsePlane(plane)
			if err != nil {
				return err
			}

			roi, err := parseROI(roiFlag)
			if err != nil {
				return err
			}

			cfg, err := libconfig.New(libconfig.WithMinificationFactor(minificationFactor))
			if err != nil {
				return err
			}

			opts := accessor.Options{
				Background:                     [3]float64{0, 0, 0},
				DrawTileBorder:                 border,
				UseVisibilityCheckOptimization: visibility,
			}

			var bmp cache.Bitmap
			switch mode {
			case "layer0":
				bmp, err = accessor.RenderLayer0(cfg, r, planeCoord, roi, opts)
			case "pyramid":
				bmp, err = accessor.RenderPyramidLayer(cfg, r, planeCoord, roi, minificationFactor, layer, opts)
			case "scale":
				bmp, err = accessor.RenderScaled(cfg, r, planeCoord, roi, zoom, opts)
			default:
				return fmt.Errorf("unknown render mode %q (want layer0, pyramid, or scale)", mode)
			}
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}

			return writeBitmap(out, bmp)
		},
	}

	cmd.Flags().StringVar(&plane, "plane", "", "plane coordinate as comma-separated dim=value pairs, e.g. C=0,T=1")
	cmd.Flags().StringVar(&roiFlag, "roi", "", "region of interest as x,y,w,h")
	cmd.Flags().StringVar(&mode, "mode", "layer0", "accessor to use: layer0, pyramid, or scale")
	cmd.Flags().Int32Var(&layer, "layer", 0, "pyramid layer number (mode=pyramid)")
	cmd.Flags().Int32Var(&minificationFactor, "minification", 2, "pyramid minification factor")
	cmd.Flags().Float64Var(&zoom, "zoom", 1.0, "requested zoom in (0,1] (mode=scale)")
	cmd.Flags().StringVar(&out, "out", "out.raw", "output file for the raw pixel dump")
	cmd.Flags().BoolVar(&visibility, "visibility", false, "enable the visibility-check optimization")
	cmd.Flags().BoolVar(&border, "border", false, "draw a 1-pixel border around each composed tile")

	return cmd
}

func parsePlane(s string) (map[format.Dimension]int32, error) {
	coord := make(map[format.Dimension]int32)
	if s == "" {
		return coord, nil
	}

	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || len(kv[0]) != 1 {
			return nil, fmt.Errorf("invalid plane coordinate term %q", part)
		}

		v, err := strconv.ParseInt(kv[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid plane coordinate value %q: %w", part, err)
		}

		coord[format.Dimension(kv[0][0])] = int32(v)
	}

	return coord, nil
}

func parseROI(s string) (directory.Rect, error) {
	if s == "" {
		return directory.Rect{}, fmt.Errorf("--roi is required (x,y,w,h)")
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return directory.Rect{}, fmt.Errorf("invalid --roi %q, want x,y,w,h", s)
	}

	vals := make([]int32, 4)
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return directory.Rect{}, fmt.Errorf("invalid --roi %q: %w", s, err)
		}
		vals[i] = int32(v)
	}

	return directory.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func writeBitmap(path string, bmp cache.Bitmap) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(bmp.Width))
	binary.LittleEndian.PutUint32(header[4:8], uint32(bmp.Height))

	if _, err := f.Write(header[:]); err != nil {
		return err
	}
	if _, err := f.Write(bmp.Pixels); err != nil {
		return err
	}

	fmt.Printf("wrote %dx%d %s pixels to %s\n", bmp.Width, bmp.Height, bmp.PixelType, path)

	return nil
}

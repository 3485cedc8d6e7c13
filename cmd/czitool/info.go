package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/carlzeiss/czi/reader"
	"github.com/carlzeiss/czi/stream"
)

// NewInfoCmd builds "czitool info <file>": prints the subblock directory's
// consolidated statistics and pyramid histogram.
func NewInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Print subblock statistics and pyramid histogram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := stream.OpenFile(args[0], false)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Printf("close %s: %v", args[0], err)
				}
			}()

			r, err := reader.Open(f, nil)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			defer func() {
				if err := r.Close(); err != nil {
					log.Printf("close reader: %v", err)
				}
			}()

			stats := r.GetStatistics()
			fmt.Printf("subblock count:   %d\n", stats.Count)
			fmt.Printf("bounding box:     %+v\n", stats.BoundingBox)
			fmt.Printf("layer0 bbox:      %+v\n", stats.Layer0BoundingBox)
			if stats.HasValidMIndex {
				fmt.Printf("M range:          [%d, %d]\n", stats.MIndexMin, stats.MIndexMax)
			} else {
				fmt.Println("M range:          (no valid M-index present)")
			}
			fmt.Printf("scenes:           %d\n", len(stats.PerScene))

			pyr := r.GetPyramidStatistics()
			fmt.Printf("minification:     %d\n", pyr.MinificationFactor)
			for layer, count := range pyr.Histogram {
				fmt.Printf("  layer %d:        %d subblocks\n", layer, count)
			}
			if pyr.Unrepresentable > 0 {
				fmt.Printf("  unrepresentable: %d subblocks\n", pyr.Unrepresentable)
			}

			return nil
		},
	}

	return cmd
}

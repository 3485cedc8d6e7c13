package main

import "github.com/spf13/cobra"

// NewRootCmd builds the czitool command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "czitool",
		Short: "Inspect and render CZI files",
		Long: `czitool is a reference command-line client for the czi library: it
opens CZI files, prints subblock/attachment/statistics information, and
renders tiles through the layer-0, pyramid-layer, and arbitrary-zoom
accessors.`,
	}

	root.AddCommand(NewInfoCmd())
	root.AddCommand(NewListCmd())
	root.AddCommand(NewRenderCmd())

	return root
}

package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/carlzeiss/czi/reader"
	"github.com/carlzeiss/czi/section"
	"github.com/carlzeiss/czi/stream"
)

// NewListCmd builds "czitool list subblocks|attachments <file>".
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subblock or attachment directory entries",
	}

	cmd.AddCommand(newListSubblocksCmd())
	cmd.AddCommand(newListAttachmentsCmd())

	return cmd
}

func openReader(path string) (*reader.Reader, func(), error) {
	f, err := stream.OpenFile(path, false)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	r, err := reader.Open(f, nil)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	closeAll := func() {
		if err := r.Close(); err != nil {
			log.Printf("close reader: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Printf("close %s: %v", path, err)
		}
	}

	return r, closeAll, nil
}

func newListSubblocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subblocks <file>",
		Short: "List every subblock directory entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeAll, err := openReader(args[0])
			if err != nil {
				return err
			}
			defer closeAll()

			return r.EnumerateSubblocks(func(index int, entry section.DirectoryEntry) bool {
				x, y, w, h := entry.LogicalRect()
				sw, sh := entry.StoredSize()
				m := "-"
				if entry.HasValidMIndex() {
					m = fmt.Sprintf("%d", entry.MIndex())
				}
				fmt.Printf("[%3d] pos=(%d,%d) size=%dx%d stored=%dx%d pixel=%s compression=%s m=%s\n",
					index, x, y, w, h, sw, sh, entry.PixelType, entry.Compression(), m)

				return true
			})
		},
	}
}

func newListAttachmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attachments <file>",
		Short: "List every attachment directory entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeAll, err := openReader(args[0])
			if err != nil {
				return err
			}
			defer closeAll()

			return r.EnumerateAttachments(func(index int, entry section.AttachmentEntry) bool {
				fmt.Printf("[%3d] guid=%s type=%s name=%s\n",
					index, entry.ContentGUID, entry.ContentFileTypeString(), entry.NameString())

				return true
			})
		},
	}
}

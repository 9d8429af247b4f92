// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/LittlPenguin/nexent/internal/models"
	kbsync "github.com/LittlPenguin/nexent/internal/sync"
)

func docsCmd() *cobra.Command {
	docs := &cobra.Command{
		Use:   "docs",
		Short: "Manage documents in a knowledge base",
	}
	docs.AddCommand(docsListCmd())
	docs.AddCommand(docsDeleteCmd())
	return docs
}

func docsListCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "list <kb-id>",
		Short: "List documents and their ingestion status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, bus := newDirectory()
			defer bus.Close()

			docs, err := d.ListDocuments(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(docs)
			}
			printDocTable(docs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force-refresh", false, "bypass backend-side caching")
	return cmd
}

func docsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kb-id> <doc-id>",
		Short: "Delete a document from a knowledge base",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, bus := newDirectory()
			defer bus.Close()

			if err := d.DeleteDocument(cmd.Context(), args[1], args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted document %s from %s\n", args[1], args[0])
			return nil
		},
	}
}

func uploadCmd() *cobra.Command {
	var chunkingStrategy string
	cmd := &cobra.Command{
		Use:   "upload <kb-id> <file>...",
		Short: "Upload files into a knowledge base",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, bus := newDirectory()
			defer bus.Close()

			kbID := args[0]
			paths := args[1:]

			files := make([]kbsync.UploadFile, 0, len(paths))
			for _, p := range paths {
				f, err := os.Open(p)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", p, err)
				}
				defer f.Close()
				files = append(files, kbsync.UploadFile{
					Name:   filepath.Base(p),
					Reader: f,
				})
			}

			err := d.UploadDocuments(cmd.Context(), kbID, files, chunkingStrategy)

			var ve *kbsync.ValidationError
			var pe *kbsync.ProcessingError
			switch {
			case err == nil:
				fmt.Printf("uploaded %d file(s) to %s\n", len(files), kbID)
				return nil
			case errors.As(err, &ve):
				return ve
			case errors.As(err, &pe):
				if len(pe.Files) > 0 {
					fmt.Fprintf(os.Stderr, "files saved before failure: %s\n", strings.Join(pe.Files, ", "))
				}
				return pe
			default:
				return err
			}
		},
	}
	cmd.Flags().StringVar(&chunkingStrategy, "chunking-strategy", "", "chunking strategy passed to the backend")
	return cmd
}

func printDocTable(docs []models.Document) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tSIZE\tCHUNKS\tSTATUS")
	for _, doc := range docs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			doc.Name, doc.Type, doc.Size, doc.ChunkNum, doc.Status)
	}
	w.Flush()
}

// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/LittlPenguin/nexent/internal/models"
	kbsync "github.com/LittlPenguin/nexent/internal/sync"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend and Elasticsearch health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, bus := newDirectory()
			defer bus.Close()

			if !d.CheckHealth(cmd.Context()) {
				return fmt.Errorf("backend unhealthy or unreachable at %s", cfg.Backend.URL)
			}
			fmt.Println("backend healthy")
			return nil
		},
	}
}

func kbCmd() *cobra.Command {
	kb := &cobra.Command{
		Use:   "kb",
		Short: "Manage knowledge bases",
	}
	kb.AddCommand(kbListCmd())
	kb.AddCommand(kbCreateCmd())
	kb.AddCommand(kbDeleteCmd())
	return kb
}

func kbListCmd() *cobra.Command {
	var skipHealth bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge bases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, bus := newDirectory()
			defer bus.Close()

			kbs := d.List(cmd.Context(), kbsync.ListOptions{SkipHealthCheck: skipHealth})
			if jsonOutput {
				return printJSON(kbs)
			}
			printKBTable(kbs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipHealth, "skip-health-check", false, "list even when the backend health probe fails")
	return cmd
}

func kbCreateCmd() *cobra.Command {
	var description, embeddingModel string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, bus := newDirectory()
			defer bus.Close()

			kb, err := d.Create(cmd.Context(), kbsync.CreateParams{
				Name:           args[0],
				Description:    description,
				EmbeddingModel: embeddingModel,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(kb)
			}
			fmt.Printf("created knowledge base %q (id %s)\n", kb.Name, kb.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "knowledge base description")
	cmd.Flags().StringVarP(&embeddingModel, "embedding-model", "m", "", "embedding model name")
	return cmd
}

func kbDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, bus := newDirectory()
			defer bus.Close()

			if err := d.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted knowledge base %s\n", args[0])
			return nil
		},
	}
}

func printKBTable(kbs []models.KnowledgeBaseSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDOCS\tCHUNKS\tEMBEDDING\tSOURCE")
	for _, kb := range kbs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			kb.ID, kb.Name, kb.DocumentCount, kb.ChunkCount, kb.EmbeddingModel, kb.Source)
	}
	w.Flush()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

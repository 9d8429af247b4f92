// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

// Command nexent is a CLI for the Nexent knowledge base backend: list and
// manage knowledge bases, upload documents, and watch ingestion progress
// until it converges.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LittlPenguin/nexent/internal/config"
	"github.com/LittlPenguin/nexent/internal/logging"
	kbsync "github.com/LittlPenguin/nexent/internal/sync"
)

var version = "0.1.0"

var (
	cfg        *config.Config
	jsonOutput bool
)

func main() {
	root := &cobra.Command{
		Use:           "nexent",
		Short:         "Client for Nexent knowledge bases",
		Long:          "nexent manages knowledge bases on a Nexent backend:\nlisting, creation, document upload, and ingestion tracking.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			cfg = c
			logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of tables")

	root.AddCommand(healthCmd())
	root.AddCommand(kbCmd())
	root.AddCommand(docsCmd())
	root.AddCommand(uploadCmd())
	root.AddCommand(watchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newDirectory builds the client chain: HTTP client wrapped in a circuit
// breaker, fronted by the caching directory. The returned bus carries
// change notifications; callers that do not subscribe can ignore it.
func newDirectory() (*kbsync.Directory, *kbsync.Bus) {
	client := kbsync.NewCircuitBreakerClient(kbsync.NewAPIClient(&cfg.Backend))
	bus := kbsync.NewBus()
	return kbsync.NewDirectory(client, &cfg.Cache, bus), bus
}

// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LittlPenguin/nexent/internal/metrics"
	"github.com/LittlPenguin/nexent/internal/models"
	"github.com/LittlPenguin/nexent/internal/supervisor"
	kbsync "github.com/LittlPenguin/nexent/internal/sync"
)

func watchCmd() *cobra.Command {
	var (
		interval    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch <kb-id>",
		Short: "Poll a knowledge base until document ingestion converges",
		Long: "watch polls the document list of a knowledge base, printing status\n" +
			"changes as they happen, and exits once every document has reached a\n" +
			"terminal state.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = cfg.Polling.Interval
			}
			if metricsAddr != "" {
				cfg.Metrics.Addr = metricsAddr
			}
			return runWatch(args[0], interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "listen address for /metrics and /healthz (default from config)")
	return cmd
}

func runWatch(kbID string, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, bus := newDirectory()
	defer bus.Close()

	mgr := kbsync.NewManager(dir, bus, interval)

	tree := supervisor.New()
	tree.Add(mgr)
	if cfg.Metrics.Addr != "" {
		tree.Add(metrics.NewServer(cfg.Metrics.Addr))
	}
	errCh := tree.ServeBackground(ctx)

	mgr.SetActive(kbID)
	mgr.StartPolling(kbID, func(res kbsync.Result) {
		printProgress(res.Snapshot.Documents)
	})

	// Sessions remove themselves on convergence; poll the registry to
	// notice it.
	probe := time.NewTicker(250 * time.Millisecond)
	defer probe.Stop()

	for {
		select {
		case <-ctx.Done():
			<-errCh
			return nil
		case err := <-errCh:
			if err != nil && err != context.Canceled {
				return err
			}
			return nil
		case <-probe.C:
			if !mgr.IsPolling(kbID) {
				fmt.Println("ingestion converged")
				stop()
				<-errCh
				return nil
			}
		}
	}
}

// printProgress writes one line per status with a document count, plus the
// names of any failed documents.
func printProgress(docs []models.Document) {
	counts := make(map[models.DocumentStatus]int)
	var failed []string
	for _, doc := range docs {
		counts[doc.Status]++
		if doc.Status.IsFailure() {
			failed = append(failed, doc.Name)
		}
	}

	fmt.Printf("%s  %d documents:", time.Now().Format("15:04:05"), len(docs))
	for status, n := range counts {
		fmt.Printf(" %s=%d", status, n)
	}
	fmt.Println()
	for _, name := range failed {
		fmt.Printf("  failed: %s\n", name)
	}
}

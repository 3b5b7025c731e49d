package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/client"
	"alfredoptarigan/candidate-ranker/internal/logger"
	"alfredoptarigan/candidate-ranker/internal/models"
)

const (
	app = "scorectl"
)

var (
	// Used for flags.
	serverURL      string
	requestTimeout time.Duration
	debug          bool
	jsonLogs       bool

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "scorectl submits scoring requests to a candidate-ranker server and waits for the ranking",
		SilenceUsage: true,
	}
)

// Execute executes the root command. Interrupting stops polling; the job
// keeps running on the server.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:3000", "candidate-ranker server URL")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 30*time.Second, "timeout of a single HTTP request")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonLogs, "json", "j", false, "json format for logging")
}

func newLogger() (*zap.Logger, error) {
	l, err := logger.New(jsonLogs, debug)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	return l, nil
}

func newClient() *client.Client {
	return client.New(serverURL, requestTimeout)
}

func loadCandidates(path string) ([]models.Candidate, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidates file: %w", err)
	}

	var candidates []models.Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("parsing candidates file: %w", err)
	}
	return candidates, nil
}

func printResults(cmd *cobra.Command, results []models.ScoreResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

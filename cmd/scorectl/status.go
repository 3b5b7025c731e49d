package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	statusJobID      string
	statusCandidates string
	statusWait       bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check a scoring job; a finished job can only be fetched once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStatus(cmd)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusJobID, "job", "", "job id returned by the score command")
	statusCmd.Flags().StringVarP(&statusCandidates, "candidates", "c", "", "JSON file with the candidates of the job")
	statusCmd.Flags().BoolVarP(&statusWait, "wait", "w", false, "keep polling until the job settles")
	statusCmd.Flags().DurationVar(&pollInterval, "interval", pollInterval, "delay between status checks")
	statusCmd.Flags().IntVar(&pollRetries, "retries", pollRetries, "maximum number of status checks")
}

func runStatus(cmd *cobra.Command) error {
	if statusJobID == "" {
		return errors.New("--job is required")
	}

	log, err := newLogger()
	if err != nil {
		return err
	}

	candidates, err := loadCandidates(statusCandidates)
	if err != nil {
		return err
	}

	c := newClient()
	if statusWait {
		return pollAndPrint(cmd, c, log, statusJobID, candidates)
	}

	reply, err := c.Status(cmd.Context(), statusJobID, candidates)
	if err != nil {
		return err
	}
	if reply.Processing() {
		log.Info("⏳ Job is still processing", zap.String("job_id", statusJobID))
		return nil
	}
	return printResults(cmd, reply.Data)
}

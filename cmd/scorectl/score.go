package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/client"
	"alfredoptarigan/candidate-ranker/internal/models"
)

var (
	jobDescription     string
	jobDescriptionFile string
	candidatesFile     string
	pollInterval       = client.DefaultPollInterval
	pollRetries        = client.DefaultMaxRetries
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score candidates against a job description and wait for the ranking",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScore(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&jobDescription, "jd", "", "job description text")
	scoreCmd.Flags().StringVar(&jobDescriptionFile, "jd-file", "", "file holding the job description text")
	scoreCmd.Flags().StringVarP(&candidatesFile, "candidates", "c", "", "JSON file with the candidates; the server's candidates are used when unset")
	scoreCmd.Flags().DurationVar(&pollInterval, "interval", pollInterval, "delay between status checks")
	scoreCmd.Flags().IntVar(&pollRetries, "retries", pollRetries, "maximum number of status checks")
}

func runScore(cmd *cobra.Command) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	jd := jobDescription
	if jobDescriptionFile != "" {
		data, err := os.ReadFile(jobDescriptionFile)
		if err != nil {
			return fmt.Errorf("reading job description file: %w", err)
		}
		jd = strings.TrimSpace(string(data))
	}
	if jd == "" {
		return errors.New("either --jd or --jd-file is required")
	}

	candidates, err := loadCandidates(candidatesFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c := newClient()

	code, body, err := c.Score(ctx, jd, candidates)
	if err != nil {
		return err
	}

	switch code {
	case fiber.StatusOK:
		var resp models.ScoreResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decoding score response: %w", err)
		}
		return printResults(cmd, resp.Data)

	case fiber.StatusAccepted:
		var accepted models.JobAcceptedResponse
		if err := json.Unmarshal(body, &accepted); err != nil {
			return fmt.Errorf("decoding job response: %w", err)
		}
		log.Info("⏳ Job accepted, polling for results",
			zap.String("job_id", accepted.JobID),
			zap.Int("candidates", len(accepted.Candidates)),
		)
		return pollAndPrint(cmd, c, log, accepted.JobID, accepted.Candidates)

	default:
		var msg models.MessageResponse
		_ = json.Unmarshal(body, &msg)
		if code == fiber.StatusConflict && msg.JobID != "" && len(candidates) > 0 {
			log.Info("⏳ A job for this description is already running, polling it",
				zap.String("job_id", msg.JobID),
			)
			return pollAndPrint(cmd, c, log, msg.JobID, candidates)
		}
		return &client.StatusError{Code: code, Message: msg.Message}
	}
}

func pollAndPrint(cmd *cobra.Command, c *client.Client, log *zap.Logger, jobID string, candidates []models.Candidate) error {
	poller := client.NewPoller(c,
		client.WithInterval(pollInterval),
		client.WithMaxRetries(pollRetries),
		client.WithLogger(log),
	)

	results, err := poller.Poll(cmd.Context(), jobID, candidates)
	if err != nil {
		return err
	}
	return printResults(cmd, results)
}

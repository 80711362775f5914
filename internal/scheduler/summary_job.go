package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"capitation-engine/internal/store"
)

// SummaryJob logs the running submission and vote picture so facilitators
// can follow a workshop from the server log.
type SummaryJob struct {
	store store.Store
	log   zerolog.Logger
}

func NewSummaryJob(st store.Store, log zerolog.Logger) *SummaryJob {
	return &SummaryJob{
		store: st,
		log:   log.With().Str("job", "submission_summary").Logger(),
	}
}

func (j *SummaryJob) Name() string {
	return "submission_summary"
}

func (j *SummaryJob) Run() error {
	stats, err := j.store.Stats()
	if err != nil {
		return fmt.Errorf("failed to load submission stats: %w", err)
	}
	tallies, err := j.store.VoteTallies()
	if err != nil {
		return fmt.Errorf("failed to load vote tallies: %w", err)
	}

	votes := zerolog.Dict()
	for _, t := range tallies {
		votes.Int(t.Option, t.Votes)
	}

	j.log.Info().
		Int("submissions", stats.Count).
		Float64("score_mean", stats.Mean).
		Float64("score_std_dev", stats.StdDev).
		Float64("score_max", stats.Max).
		Dict("votes", votes).
		Msg("Submission summary")
	return nil
}

package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capitation-engine/internal/export"
)

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "submissions.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func submission(id, name string, score float64) Submission {
	return Submission{
		ID:      id,
		Profile: "v7",
		Record: export.Record{
			Timestamp:         "2026-02-03T09:15:00Z",
			Name:              name,
			Profession:        "clinical_psychologist",
			FFSIncome:         1_350_000,
			Population:        80000,
			CapitationRate:    120,
			ValueScore:        score,
			TeamIllegal:       score < 50,
			ServicesAvailable: "diagnosis_and_therapy",
			ServicesMissing:   "prescribing_severe_illness",
		},
	}
}

func TestAppendAndList(t *testing.T) {
	s, _ := openTestStore(t)

	list, err := s.ListSubmissions()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.AppendSubmission(submission("a", "Dr. Nkosi", 87)))
	require.NoError(t, s.AppendSubmission(submission("b", "Ms. Dlamini", 42)))

	list, err = s.ListSubmissions()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, submission("a", "Dr. Nkosi", 87), list[0])
	assert.Equal(t, "b", list[1].ID)
	assert.True(t, list[1].TeamIllegal)
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	s, _ := openTestStore(t)

	require.NoError(t, s.AppendSubmission(submission("a", "X", 1)))
	err := s.AppendSubmission(submission("a", "Y", 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to append submission")
}

func TestLeaderboard(t *testing.T) {
	s, _ := openTestStore(t)
	for i, score := range []float64{60, 87, 79, 87, 12, 82} {
		require.NoError(t, s.AppendSubmission(submission(fmt.Sprint(i), fmt.Sprintf("p%d", i), score)))
	}

	top, err := s.Leaderboard(3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, LeaderboardEntry{Rank: 1, Name: "p1", Score: 87, Timestamp: "2026-02-03T09:15:00Z"}, top[0])
	assert.Equal(t, "p3", top[1].Name)
	assert.Equal(t, "p5", top[2].Name)

	none, err := s.Leaderboard(0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStats(t *testing.T) {
	s, _ := openTestStore(t)

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)

	for i, score := range []float64{40, 60, 80} {
		require.NoError(t, s.AppendSubmission(submission(fmt.Sprint(i), "p", score)))
	}
	st, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, st.Count)
	assert.InDelta(t, 60, st.Mean, 1e-9)
	assert.InDelta(t, 20, st.StdDev, 1e-9)
	assert.Equal(t, 60.0, st.Median)
	assert.Equal(t, 80.0, st.Max)
}

func TestVotes(t *testing.T) {
	s, _ := openTestStore(t)

	require.NoError(t, s.CastVote(VoteOptimal))
	require.NoError(t, s.CastVote(VoteOptimal))
	require.NoError(t, s.CastVote(VoteComprehensive))

	err := s.CastVote("lavish")
	assert.ErrorIs(t, err, ErrUnknownVoteOption)

	tallies, err := s.VoteTallies()
	require.NoError(t, err)
	assert.Equal(t, []VoteTally{
		{Option: VoteMinimal, Votes: 0},
		{Option: VoteOptimal, Votes: 2},
		{Option: VoteComprehensive, Votes: 1},
	}, tallies)
}

func TestConcurrentWriters(t *testing.T) {
	s, _ := openTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.AppendSubmission(submission(fmt.Sprint(i), "p", float64(i))))
			assert.NoError(t, s.CastVote(VoteMinimal))
		}(i)
	}
	wg.Wait()

	list, err := s.ListSubmissions()
	require.NoError(t, err)
	assert.Len(t, list, 20)

	tallies, err := s.VoteTallies()
	require.NoError(t, err)
	assert.Equal(t, 20, tallies[0].Votes)
}

func TestReopenKeepsData(t *testing.T) {
	s, path := openTestStore(t)
	require.NoError(t, s.AppendSubmission(submission("a", "X", 50)))
	require.NoError(t, s.CastVote(VoteMinimal))
	require.NoError(t, s.Close())

	reopened, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	list, err := reopened.ListSubmissions()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	tallies, err := reopened.VoteTallies()
	require.NoError(t, err)
	assert.Equal(t, 1, tallies[0].Votes)
}

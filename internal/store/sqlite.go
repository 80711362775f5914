package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the Store backed by a single SQLite file. All writes go
// through one connection guarded by mu.
type SQLiteStore struct {
	db  *sqlx.DB
	mu  sync.Mutex
	log zerolog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(path string, log zerolog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{
		db:  db,
		log: log.With().Str("repository", "submissions").Logger(),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		profile TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		name TEXT NOT NULL,
		profession TEXT NOT NULL,
		ffs_income REAL NOT NULL,
		population REAL NOT NULL,
		capitation_rate REAL NOT NULL,
		utilisation_rate REAL NOT NULL,
		fte_psychiatrist REAL NOT NULL,
		fte_clinical_psychologist REAL NOT NULL,
		fte_counselling_psychologist REAL NOT NULL,
		fte_registered_counsellor REAL NOT NULL,
		fte_mental_health_nurse REAL NOT NULL,
		fte_community_health_worker REAL NOT NULL,
		cap_income REAL NOT NULL,
		income_diff_pct REAL NOT NULL,
		pop_engaged_pct REAL NOT NULL,
		value_score REAL NOT NULL,
		team_illegal INTEGER NOT NULL,
		services_available TEXT NOT NULL,
		services_missing TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS votes (
		choice TEXT PRIMARY KEY,
		votes INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_score ON submissions(value_score DESC, seq ASC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	for _, option := range VoteOptions {
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO votes (choice, votes) VALUES (?, 0)`, option); err != nil {
			return err
		}
	}
	return nil
}

const submissionColumns = `id, profile, timestamp, name, profession, ffs_income, population, capitation_rate,
	utilisation_rate, fte_psychiatrist, fte_clinical_psychologist, fte_counselling_psychologist,
	fte_registered_counsellor, fte_mental_health_nurse, fte_community_health_worker, cap_income,
	income_diff_pct, pop_engaged_pct, value_score, team_illegal, services_available, services_missing`

func (s *SQLiteStore) AppendSubmission(sub Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.NamedExec(`INSERT INTO submissions (`+submissionColumns+`) VALUES (
		:id, :profile, :timestamp, :name, :profession, :ffs_income, :population, :capitation_rate,
		:utilisation_rate, :fte_psychiatrist, :fte_clinical_psychologist, :fte_counselling_psychologist,
		:fte_registered_counsellor, :fte_mental_health_nurse, :fte_community_health_worker, :cap_income,
		:income_diff_pct, :pop_engaged_pct, :value_score, :team_illegal, :services_available, :services_missing)`, sub)
	if err != nil {
		return fmt.Errorf("failed to append submission: %w", err)
	}

	s.log.Debug().Str("id", sub.ID).Str("name", sub.Name).Float64("score", sub.ValueScore).Msg("Submission stored")
	return nil
}

// ListSubmissions returns every submission in arrival order.
func (s *SQLiteStore) ListSubmissions() ([]Submission, error) {
	subs := []Submission{}
	if err := s.db.Select(&subs, `SELECT `+submissionColumns+` FROM submissions ORDER BY seq ASC`); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

// Leaderboard returns the n best scores; ties go to the earlier submission.
func (s *SQLiteStore) Leaderboard(n int) ([]LeaderboardEntry, error) {
	if n < 1 {
		return []LeaderboardEntry{}, nil
	}

	var rows []struct {
		Name      string  `db:"name"`
		Score     float64 `db:"value_score"`
		Timestamp string  `db:"timestamp"`
	}
	err := s.db.Select(&rows, `SELECT name, value_score, timestamp FROM submissions
		ORDER BY value_score DESC, seq ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = LeaderboardEntry{Rank: i + 1, Name: r.Name, Score: r.Score, Timestamp: r.Timestamp}
	}
	return entries, nil
}

func (s *SQLiteStore) Stats() (Stats, error) {
	var scores []float64
	if err := s.db.Select(&scores, `SELECT value_score FROM submissions`); err != nil {
		return Stats{}, fmt.Errorf("failed to query scores: %w", err)
	}
	return summarise(scores), nil
}

func summarise(scores []float64) Stats {
	st := Stats{Count: len(scores)}
	if len(scores) == 0 {
		return st
	}
	sort.Float64s(scores)
	st.Mean = stat.Mean(scores, nil)
	if len(scores) > 1 {
		st.StdDev = stat.StdDev(scores, nil)
	}
	st.Median = stat.Quantile(0.5, stat.Empirical, scores, nil)
	st.Max = floats.Max(scores)
	return st
}

func (s *SQLiteStore) CastVote(option string) error {
	known := false
	for _, o := range VoteOptions {
		if o == option {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownVoteOption, option)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`UPDATE votes SET votes = votes + 1 WHERE choice = ?`, option); err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}
	return nil
}

// VoteTallies returns the count for every option in VoteOptions order.
func (s *SQLiteStore) VoteTallies() ([]VoteTally, error) {
	var rows []VoteTally
	if err := s.db.Select(&rows, `SELECT choice, votes FROM votes`); err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Option] = r.Votes
	}

	tallies := make([]VoteTally, len(VoteOptions))
	for i, o := range VoteOptions {
		tallies[i] = VoteTally{Option: o, Votes: counts[o]}
	}
	return tallies, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

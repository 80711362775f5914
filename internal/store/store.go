// Package store persists workshop submissions and votes. Submissions are
// append-only; the engine never touches the store.
package store

import (
	"errors"

	"capitation-engine/internal/export"
)

// Vote options, one per preset package.
const (
	VoteMinimal       = "minimal"
	VoteOptimal       = "optimal"
	VoteComprehensive = "comprehensive"
)

var VoteOptions = []string{VoteMinimal, VoteOptimal, VoteComprehensive}

var ErrUnknownVoteOption = errors.New("unknown vote option")

// Submission is one stored export record.
type Submission struct {
	ID      string `db:"id" json:"id" msgpack:"id"`
	Profile string `db:"profile" json:"profile" msgpack:"profile"`
	export.Record
}

type LeaderboardEntry struct {
	Rank      int     `json:"rank"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Timestamp string  `json:"timestamp"`
}

// Stats summarises submitted value scores.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

type VoteTally struct {
	Option string `db:"choice" json:"option"`
	Votes  int    `db:"votes" json:"votes"`
}

// Store is the repository the HTTP layer writes submissions and votes to.
// Implementations must serialise concurrent writers.
type Store interface {
	AppendSubmission(s Submission) error
	ListSubmissions() ([]Submission, error)
	Leaderboard(n int) ([]LeaderboardEntry, error)
	Stats() (Stats, error)
	CastVote(option string) error
	VoteTallies() ([]VoteTally, error)
	Close() error
}

package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCancelled  MatchStatus = "cancelled"
)

type MatchFormat string

const (
	FormatBestOfThree MatchFormat = "best_of_3"
	FormatBestOfFive  MatchFormat = "best_of_5"
)

// SetsToWin returns the number of sets required to take the match.
func (f MatchFormat) SetsToWin() int {
	if f == FormatBestOfFive {
		return 3
	}
	return 2
}

// Winner fields throughout hold a player slot (1 or 2), nil while undecided.
type Match struct {
	ID        int         `json:"id"`
	Format    MatchFormat `json:"format"`
	Status    MatchStatus `json:"status"`
	Winner    *int        `json:"winner,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

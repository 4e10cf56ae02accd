package models

// Game points are raw counters for both game kinds. For a standard game the
// tennis ordinals (0/15/30/40/Ad) are derived at presentation time; for a
// tiebreak the counters are the score. Server is the player serving the
// first point of the game.
type Game struct {
	ID         int  `json:"id"`
	SetID      int  `json:"set_id"`
	GameNumber int  `json:"game_number"`
	Server     int  `json:"server"`
	Tiebreak   bool `json:"tiebreak"`
	P1Points   int  `json:"p1_points"`
	P2Points   int  `json:"p2_points"`
	Winner     *int `json:"winner,omitempty"`
}

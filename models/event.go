package models

// ScoreChangeEvent is the snapshot pushed to viewers after every successful
// mutation. It is derived from persisted state and never stored itself.
type ScoreChangeEvent struct {
	MatchID     int         `json:"match_id"`
	SetNumber   int         `json:"set_number"`
	GameNumber  int         `json:"game_number"`
	P1Label     string      `json:"p1_label"`
	P2Label     string      `json:"p2_label"`
	Tiebreak    bool        `json:"tiebreak"`
	Server      int         `json:"server"`
	P1Sets      int         `json:"p1_sets"`
	P2Sets      int         `json:"p2_sets"`
	P1Games     int         `json:"p1_games"`
	P2Games     int         `json:"p2_games"`
	MatchStatus MatchStatus `json:"match_status"`
	Winner      *int        `json:"winner,omitempty"`
}

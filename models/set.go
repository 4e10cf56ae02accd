package models

type Set struct {
	ID         int  `json:"id"`
	MatchID    int  `json:"match_id"`
	SetNumber  int  `json:"set_number"`
	P1Games    int  `json:"p1_games"`
	P2Games    int  `json:"p2_games"`
	TiebreakP1 *int `json:"tiebreak_p1,omitempty"`
	TiebreakP2 *int `json:"tiebreak_p2,omitempty"`
	Winner     *int `json:"winner,omitempty"`
}

package models

import "time"

// Point records are append-only: once written they are never updated or
// deleted, so the ledger for a game can be replayed to reproduce its state.
type Point struct {
	ID          int       `json:"id"`
	GameID      int       `json:"game_id"`
	PointNumber int       `json:"point_number"`
	Winner      int       `json:"winner"`
	CreatedAt   time.Time `json:"created_at"`
}

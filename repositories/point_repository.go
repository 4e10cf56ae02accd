package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/courtside/match-scoring/models"
	"github.com/lib/pq"
)

var ErrPointConflict = errors.New("point number already recorded for game")

// PointRepository is append-only: points are never updated or deleted, so
// the ledger of a game can always be replayed in point_number order.
type PointRepository interface {
	Append(ctx context.Context, exec SQLExecutor, point *models.Point) error
	ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Point, error)
}

type postgresPointRepository struct{}

func NewPostgresPointRepository() PointRepository {
	return &postgresPointRepository{}
}

func (r *postgresPointRepository) Append(ctx context.Context, exec SQLExecutor, point *models.Point) error {
	query := `
		INSERT INTO points (game_id, point_number, winner)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		point.GameID,
		point.PointNumber,
		point.Winner,
	).Scan(&point.ID, &point.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "points_game_id_point_number_key":
				return ErrPointConflict
			case "points_game_id_fkey":
				return ErrGameNotFound
			}
		}
		return fmt.Errorf("failed to append point to game %d: %w", point.GameID, err)
	}
	return nil
}

func (r *postgresPointRepository) ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Point, error) {
	query := `
		SELECT id, game_id, point_number, winner, created_at
		FROM points
		WHERE game_id = $1
		ORDER BY point_number ASC`

	rows, err := exec.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query points for game %d: %w", gameID, err)
	}
	defer rows.Close()

	points := make([]*models.Point, 0)
	for rows.Next() {
		point := &models.Point{}
		if scanErr := rows.Scan(
			&point.ID,
			&point.GameID,
			&point.PointNumber,
			&point.Winner,
			&point.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan point row: %w", scanErr)
		}
		points = append(points, point)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during point rows iteration: %w", err)
	}
	return points, nil
}

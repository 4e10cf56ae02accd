package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside/match-scoring/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	UpdateStatusWinner(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, winner *int) error
}

type postgresMatchRepository struct{}

func NewPostgresMatchRepository() MatchRepository {
	return &postgresMatchRepository{}
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (format, status, winner)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		match.Format,
		match.Status,
		match.Winner,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `
		SELECT id, format, status, winner, created_at
		FROM matches
		WHERE id = $1`

	match := &models.Match{}
	err := exec.QueryRowContext(ctx, query, id).Scan(
		&match.ID,
		&match.Format,
		&match.Status,
		&match.Winner,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) UpdateStatusWinner(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, winner *int) error {
	query := `UPDATE matches SET status = $1, winner = $2 WHERE id = $3`

	result, err := exec.ExecContext(ctx, query, status, winner, id)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

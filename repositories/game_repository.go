package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside/match-scoring/models"
	"github.com/lib/pq"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameConflict = errors.New("game number already exists for set")
)

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetCurrent(ctx context.Context, exec SQLExecutor, setID int) (*models.Game, error)
	GetByNumber(ctx context.Context, exec SQLExecutor, setID, gameNumber int) (*models.Game, error)
	GetLast(ctx context.Context, exec SQLExecutor, setID int) (*models.Game, error)
	ListBySet(ctx context.Context, exec SQLExecutor, setID int) ([]*models.Game, error)
	Update(ctx context.Context, exec SQLExecutor, game *models.Game) error
}

type postgresGameRepository struct{}

func NewPostgresGameRepository() GameRepository {
	return &postgresGameRepository{}
}

const gameColumns = `id, set_id, game_number, server, tiebreak, p1_points, p2_points, winner`

func scanGame(row interface{ Scan(...interface{}) error }, game *models.Game) error {
	return row.Scan(
		&game.ID,
		&game.SetID,
		&game.GameNumber,
		&game.Server,
		&game.Tiebreak,
		&game.P1Points,
		&game.P2Points,
		&game.Winner,
	)
}

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		INSERT INTO games (set_id, game_number, server, tiebreak, p1_points, p2_points, winner)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := exec.QueryRowContext(ctx, query,
		game.SetID,
		game.GameNumber,
		game.Server,
		game.Tiebreak,
		game.P1Points,
		game.P2Points,
		game.Winner,
	).Scan(&game.ID)
	return handleGameError(err)
}

// GetCurrent returns the single open game of a set.
func (r *postgresGameRepository) GetCurrent(ctx context.Context, exec SQLExecutor, setID int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE set_id = $1 AND winner IS NULL`

	game := &models.Game{}
	err := scanGame(exec.QueryRowContext(ctx, query, setID), game)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan current game for set %d: %w", setID, err)
	}
	return game, nil
}

func (r *postgresGameRepository) GetByNumber(ctx context.Context, exec SQLExecutor, setID, gameNumber int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE set_id = $1 AND game_number = $2`

	game := &models.Game{}
	err := scanGame(exec.QueryRowContext(ctx, query, setID, gameNumber), game)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game %d of set %d: %w", gameNumber, setID, err)
	}
	return game, nil
}

// GetLast returns the highest-numbered game of the set, open or not. Serve
// alternation for a new game is derived from it.
func (r *postgresGameRepository) GetLast(ctx context.Context, exec SQLExecutor, setID int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE set_id = $1 ORDER BY game_number DESC LIMIT 1`

	game := &models.Game{}
	err := scanGame(exec.QueryRowContext(ctx, query, setID), game)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan last game for set %d: %w", setID, err)
	}
	return game, nil
}

func (r *postgresGameRepository) ListBySet(ctx context.Context, exec SQLExecutor, setID int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE set_id = $1 ORDER BY game_number ASC`

	rows, err := exec.QueryContext(ctx, query, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for set %d: %w", setID, err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		game := &models.Game{}
		if scanErr := scanGame(rows, game); scanErr != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", scanErr)
		}
		games = append(games, game)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game rows iteration: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) Update(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		UPDATE games
		SET p1_points = $1, p2_points = $2, winner = $3
		WHERE id = $4`

	result, err := exec.ExecContext(ctx, query,
		game.P1Points,
		game.P2Points,
		game.Winner,
		game.ID,
	)
	if err != nil {
		return handleGameError(err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func handleGameError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "games_set_id_game_number_key":
			return ErrGameConflict
		case "games_set_id_fkey":
			return ErrSetNotFound
		}
	}
	return err
}

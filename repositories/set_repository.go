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
	ErrSetNotFound = errors.New("set not found")
	ErrSetConflict = errors.New("set number already exists for match")
)

type SetRepository interface {
	Create(ctx context.Context, exec SQLExecutor, set *models.Set) error
	GetCurrent(ctx context.Context, exec SQLExecutor, matchID int) (*models.Set, error)
	GetByNumber(ctx context.Context, exec SQLExecutor, matchID, setNumber int) (*models.Set, error)
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Set, error)
	Update(ctx context.Context, exec SQLExecutor, set *models.Set) error
}

type postgresSetRepository struct{}

func NewPostgresSetRepository() SetRepository {
	return &postgresSetRepository{}
}

const setColumns = `id, match_id, set_number, p1_games, p2_games, tiebreak_p1, tiebreak_p2, winner`

func scanSet(row interface{ Scan(...interface{}) error }, set *models.Set) error {
	return row.Scan(
		&set.ID,
		&set.MatchID,
		&set.SetNumber,
		&set.P1Games,
		&set.P2Games,
		&set.TiebreakP1,
		&set.TiebreakP2,
		&set.Winner,
	)
}

func (r *postgresSetRepository) Create(ctx context.Context, exec SQLExecutor, set *models.Set) error {
	query := `
		INSERT INTO sets (match_id, set_number, p1_games, p2_games, tiebreak_p1, tiebreak_p2, winner)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := exec.QueryRowContext(ctx, query,
		set.MatchID,
		set.SetNumber,
		set.P1Games,
		set.P2Games,
		set.TiebreakP1,
		set.TiebreakP2,
		set.Winner,
	).Scan(&set.ID)
	return handleSetError(err)
}

// GetCurrent returns the single open set of a match. At most one set per
// match has no winner, enforced by a partial unique index.
func (r *postgresSetRepository) GetCurrent(ctx context.Context, exec SQLExecutor, matchID int) (*models.Set, error) {
	query := `SELECT ` + setColumns + ` FROM sets WHERE match_id = $1 AND winner IS NULL`

	set := &models.Set{}
	err := scanSet(exec.QueryRowContext(ctx, query, matchID), set)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSetNotFound
		}
		return nil, fmt.Errorf("failed to scan current set for match %d: %w", matchID, err)
	}
	return set, nil
}

func (r *postgresSetRepository) GetByNumber(ctx context.Context, exec SQLExecutor, matchID, setNumber int) (*models.Set, error) {
	query := `SELECT ` + setColumns + ` FROM sets WHERE match_id = $1 AND set_number = $2`

	set := &models.Set{}
	err := scanSet(exec.QueryRowContext(ctx, query, matchID, setNumber), set)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSetNotFound
		}
		return nil, fmt.Errorf("failed to scan set %d of match %d: %w", setNumber, matchID, err)
	}
	return set, nil
}

func (r *postgresSetRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Set, error) {
	query := `SELECT ` + setColumns + ` FROM sets WHERE match_id = $1 ORDER BY set_number ASC`

	rows, err := exec.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets for match %d: %w", matchID, err)
	}
	defer rows.Close()

	sets := make([]*models.Set, 0)
	for rows.Next() {
		set := &models.Set{}
		if scanErr := scanSet(rows, set); scanErr != nil {
			return nil, fmt.Errorf("failed to scan set row: %w", scanErr)
		}
		sets = append(sets, set)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during set rows iteration: %w", err)
	}
	return sets, nil
}

func (r *postgresSetRepository) Update(ctx context.Context, exec SQLExecutor, set *models.Set) error {
	query := `
		UPDATE sets
		SET p1_games = $1, p2_games = $2, tiebreak_p1 = $3, tiebreak_p2 = $4, winner = $5
		WHERE id = $6`

	result, err := exec.ExecContext(ctx, query,
		set.P1Games,
		set.P2Games,
		set.TiebreakP1,
		set.TiebreakP2,
		set.Winner,
		set.ID,
	)
	if err != nil {
		return handleSetError(err)
	}
	return checkAffectedRows(result, ErrSetNotFound)
}

func handleSetError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "sets_match_id_set_number_key":
			return ErrSetConflict
		case "sets_match_id_fkey":
			return ErrMatchNotFound
		}
	}
	return err
}

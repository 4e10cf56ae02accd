package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside/match-scoring/models"
	"github.com/courtside/match-scoring/repositories"
	"github.com/courtside/match-scoring/scoring"
)

// SnapshotService is the read-only query surface, served from persisted
// state. Viewers that missed broadcast events re-sync through it.
type SnapshotService interface {
	GetSnapshot(ctx context.Context, matchID int) (*models.ScoreChangeEvent, error)
	ListGamePoints(ctx context.Context, matchID, setNumber, gameNumber int) ([]*models.Point, error)
	AuditGame(ctx context.Context, matchID, setNumber, gameNumber int) error
}

type snapshotService struct {
	reader    repositories.SQLExecutor
	matchRepo repositories.MatchRepository
	setRepo   repositories.SetRepository
	gameRepo  repositories.GameRepository
	pointRepo repositories.PointRepository
}

func NewSnapshotService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	setRepo repositories.SetRepository,
	gameRepo repositories.GameRepository,
	pointRepo repositories.PointRepository,
) SnapshotService {
	return &snapshotService{
		reader:    db,
		matchRepo: matchRepo,
		setRepo:   setRepo,
		gameRepo:  gameRepo,
		pointRepo: pointRepo,
	}
}

func (s *snapshotService) GetSnapshot(ctx context.Context, matchID int) (*models.ScoreChangeEvent, error) {
	match, err := s.matchRepo.GetByID(ctx, s.reader, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}

	sets, err := s.setRepo.ListByMatch(ctx, s.reader, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sets for match %d: %w", matchID, err)
	}

	// Not started (or cancelled before the first point): status only.
	if len(sets) == 0 {
		return &models.ScoreChangeEvent{MatchID: matchID, MatchStatus: match.Status, Winner: match.Winner}, nil
	}

	lastSet := sets[len(sets)-1]
	lastGame, err := s.gameRepo.GetLast(ctx, s.reader, lastSet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last game for match %d: %w", matchID, err)
	}

	return buildEvent(match, lastSet, lastGame, tallySets(sets)), nil
}

func (s *snapshotService) resolveGame(ctx context.Context, matchID, setNumber, gameNumber int) (*models.Game, error) {
	if _, err := s.matchRepo.GetByID(ctx, s.reader, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}

	set, err := s.setRepo.GetByNumber(ctx, s.reader, matchID, setNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrSetNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load set %d of match %d: %w", setNumber, matchID, err)
	}

	game, err := s.gameRepo.GetByNumber(ctx, s.reader, set.ID, gameNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %d of set %d: %w", gameNumber, set.ID, err)
	}
	return game, nil
}

// ListGamePoints returns the full point ledger of one game in order.
func (s *snapshotService) ListGamePoints(ctx context.Context, matchID, setNumber, gameNumber int) ([]*models.Point, error) {
	game, err := s.resolveGame(ctx, matchID, setNumber, gameNumber)
	if err != nil {
		return nil, err
	}
	return s.pointRepo.ListByGame(ctx, s.reader, game.ID)
}

// AuditGame replays a game's ledger and checks it reproduces the recorded
// state exactly: contiguous point numbers, identical counters, same winner.
func (s *snapshotService) AuditGame(ctx context.Context, matchID, setNumber, gameNumber int) error {
	game, err := s.resolveGame(ctx, matchID, setNumber, gameNumber)
	if err != nil {
		return err
	}
	points, err := s.pointRepo.ListByGame(ctx, s.reader, game.ID)
	if err != nil {
		return err
	}

	// Replayed point by point rather than through scoring.Replay: the ledger
	// is externally stored data, so corruption that would be a programming
	// error live (a point past a decided game, a bad winner value) is a
	// mismatch to report here, not a panic.
	replayed := scoring.GameOutcome{Game: scoring.GameState{Tiebreak: game.Tiebreak}}
	for i, point := range points {
		if point.PointNumber != i+1 {
			return fmt.Errorf("%w: point_number gap at position %d", ErrLedgerMismatch, i+1)
		}
		if !scoring.ValidPlayer(point.Winner) {
			return fmt.Errorf("%w: invalid winner %d at point %d", ErrLedgerMismatch, point.Winner, i+1)
		}
		if replayed.Completed {
			return fmt.Errorf("%w: ledger continues past a game decided at point %d", ErrLedgerMismatch, i)
		}
		replayed = scoring.ApplyPoint(replayed.Game, point.Winner)
	}
	if replayed.Game.P1Points != game.P1Points || replayed.Game.P2Points != game.P2Points {
		return fmt.Errorf("%w: replayed score %d-%d, recorded %d-%d",
			ErrLedgerMismatch, replayed.Game.P1Points, replayed.Game.P2Points, game.P1Points, game.P2Points)
	}

	recordedWinner := 0
	if game.Winner != nil {
		recordedWinner = *game.Winner
	}
	if replayed.Winner != recordedWinner {
		return fmt.Errorf("%w: replayed winner %d, recorded %d",
			ErrLedgerMismatch, replayed.Winner, recordedWinner)
	}
	return nil
}

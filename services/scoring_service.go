package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courtside/match-scoring/models"
	"github.com/courtside/match-scoring/repositories"
	"github.com/courtside/match-scoring/scoring"
)

// ScoringService is the only component allowed to mutate score state. Every
// mutation runs under the per-match lock, persists as one transaction, and
// is published to viewers only after the commit, with the lock released
// first so fan-out never delays the next submission.
type ScoringService interface {
	StartMatch(ctx context.Context, matchID int) (*models.ScoreChangeEvent, error)
	RecordPoint(ctx context.Context, matchID, pointWinner int) (*models.ScoreChangeEvent, error)
	CancelMatch(ctx context.Context, matchID int) (*models.ScoreChangeEvent, error)
}

// Publisher is the hub surface the service needs.
type Publisher interface {
	Publish(matchID int, eventType string, payload interface{})
}

// Archiver exports a completed match's ledger, best-effort.
type Archiver interface {
	ArchiveMatch(ctx context.Context, matchID int)
}

type scoringService struct {
	reader    repositories.SQLExecutor
	runner    TxRunner
	matchRepo repositories.MatchRepository
	setRepo   repositories.SetRepository
	gameRepo  repositories.GameRepository
	pointRepo repositories.PointRepository
	locker    *MatchLocker
	publisher Publisher
	archiver  Archiver
	logger    *slog.Logger
}

func NewScoringService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	setRepo repositories.SetRepository,
	gameRepo repositories.GameRepository,
	pointRepo repositories.PointRepository,
	locker *MatchLocker,
	publisher Publisher,
	archiver Archiver,
	logger *slog.Logger,
) ScoringService {
	return &scoringService{
		reader:    db,
		runner:    NewSQLTxRunner(db),
		matchRepo: matchRepo,
		setRepo:   setRepo,
		gameRepo:  gameRepo,
		pointRepo: pointRepo,
		locker:    locker,
		publisher: publisher,
		archiver:  archiver,
		logger:    logger,
	}
}

func (s *scoringService) loadMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, s.reader, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	return match, nil
}

// StartMatch moves a scheduled match in progress, creating set 1 and game 1
// with player 1 serving first.
func (s *scoringService) StartMatch(ctx context.Context, matchID int) (*models.ScoreChangeEvent, error) {
	release, err := s.locker.Acquire(ctx, matchID)
	if err != nil {
		return nil, err
	}
	defer release()

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusScheduled {
		return nil, ErrMatchNotScheduled
	}

	firstSet := &models.Set{MatchID: matchID, SetNumber: 1}
	firstGame := &models.Game{GameNumber: 1, Server: scoring.Player1}

	txErr := s.runner.RunTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.UpdateStatusWinner(ctx, exec, matchID, models.MatchStatusInProgress, nil); err != nil {
			return err
		}
		if err := s.setRepo.Create(ctx, exec, firstSet); err != nil {
			return err
		}
		firstGame.SetID = firstSet.ID
		return s.gameRepo.Create(ctx, exec, firstGame)
	})
	if txErr != nil {
		return nil, asPersistenceFailure(txErr)
	}

	match.Status = models.MatchStatusInProgress
	event := buildEvent(match, firstSet, firstGame, scoring.SetTally{})

	release()
	s.publisher.Publish(matchID, scoring.EnvelopeScoreUpdate, event)
	s.logger.Info("match started", slog.Int("match_id", matchID))
	return event, nil
}

// RecordPoint applies one point outcome through the full ladder: point,
// game, set, match. The point append and every cascading record update
// commit as a single transaction before the lock is released.
func (s *scoringService) RecordPoint(ctx context.Context, matchID, pointWinner int) (*models.ScoreChangeEvent, error) {
	if !scoring.ValidPlayer(pointWinner) {
		return nil, ErrInvalidPointWinner
	}

	release, err := s.locker.Acquire(ctx, matchID)
	if err != nil {
		return nil, err
	}
	defer release()

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusInProgress {
		return nil, ErrMatchNotInProgress
	}

	curSet, err := s.setRepo.GetCurrent(ctx, s.reader, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current set for match %d: %w", matchID, err)
	}
	curGame, err := s.gameRepo.GetCurrent(ctx, s.reader, curSet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current game for match %d: %w", matchID, err)
	}
	priorSets, err := s.setRepo.ListByMatch(ctx, s.reader, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sets for match %d: %w", matchID, err)
	}
	tally := tallySets(priorSets)

	out := scoring.ApplyPoint(scoring.GameState{
		P1Points: curGame.P1Points,
		P2Points: curGame.P2Points,
		Tiebreak: curGame.Tiebreak,
	}, pointWinner)

	pointNumber := curGame.P1Points + curGame.P2Points + 1
	point := &models.Point{GameID: curGame.ID, PointNumber: pointNumber, Winner: pointWinner}

	game := *curGame
	game.P1Points = out.Game.P1Points
	game.P2Points = out.Game.P2Points

	set := *curSet
	var (
		nextSet  *models.Set
		nextGame *models.Game
		matchOut scoring.MatchOutcome
	)

	if out.Completed {
		gameWinner := out.Winner
		game.Winner = &gameWinner

		setOut := scoring.ApplyGameResult(scoring.SetState{P1Games: set.P1Games, P2Games: set.P2Games}, gameWinner)
		set.P1Games = setOut.Set.P1Games
		set.P2Games = setOut.Set.P2Games
		if curGame.Tiebreak {
			tb1, tb2 := out.Game.P1Points, out.Game.P2Points
			set.TiebreakP1 = &tb1
			set.TiebreakP2 = &tb2
		}

		switch {
		case setOut.Completed:
			setWinner := setOut.Winner
			set.Winner = &setWinner

			matchOut = scoring.ApplySetResult(tally, match.Format.SetsToWin(), setWinner)
			tally = matchOut.Tally
			if matchOut.Completed {
				matchWinner := matchOut.Winner
				match.Status = models.MatchStatusCompleted
				match.Winner = &matchWinner
			} else {
				nextSet = &models.Set{MatchID: matchID, SetNumber: set.SetNumber + 1}
				nextGame = &models.Game{GameNumber: 1, Server: scoring.NextGameServer(game.Server)}
			}
		default:
			nextGame = &models.Game{
				SetID:      set.ID,
				GameNumber: game.GameNumber + 1,
				Server:     scoring.NextGameServer(game.Server),
				Tiebreak:   setOut.EnterTiebreak,
			}
		}
	}

	txErr := s.runner.RunTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.pointRepo.Append(ctx, exec, point); err != nil {
			return err
		}
		if err := s.gameRepo.Update(ctx, exec, &game); err != nil {
			return err
		}
		if !out.Completed {
			return nil
		}
		if err := s.setRepo.Update(ctx, exec, &set); err != nil {
			return err
		}
		if nextSet != nil {
			if err := s.setRepo.Create(ctx, exec, nextSet); err != nil {
				return err
			}
			nextGame.SetID = nextSet.ID
		}
		if nextGame != nil {
			if err := s.gameRepo.Create(ctx, exec, nextGame); err != nil {
				return err
			}
		}
		if matchOut.Completed {
			return s.matchRepo.UpdateStatusWinner(ctx, exec, matchID, match.Status, match.Winner)
		}
		return nil
	})
	if txErr != nil {
		return nil, asPersistenceFailure(txErr)
	}

	// Viewers see the state the next point will be played in.
	eventSet, eventGame := &set, &game
	if nextSet != nil {
		eventSet = nextSet
	}
	if nextGame != nil {
		eventGame = nextGame
	}
	event := buildEvent(match, eventSet, eventGame, tally)

	release()
	s.publisher.Publish(matchID, scoring.EnvelopeScoreUpdate, event)
	if matchOut.Completed {
		s.logger.Info("match completed",
			slog.Int("match_id", matchID), slog.Int("winner", *match.Winner))
		if s.archiver != nil {
			go s.archiver.ArchiveMatch(context.WithoutCancel(ctx), matchID)
		}
	}
	return event, nil
}

// CancelMatch terminally cancels a scheduled or in-progress match. It takes
// the same per-match lock as RecordPoint so it cannot race an in-flight
// point submission.
func (s *scoringService) CancelMatch(ctx context.Context, matchID int) (*models.ScoreChangeEvent, error) {
	release, err := s.locker.Acquire(ctx, matchID)
	if err != nil {
		return nil, err
	}
	defer release()

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusCompleted || match.Status == models.MatchStatusCancelled {
		return nil, ErrMatchNotInProgress
	}

	txErr := s.runner.RunTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.matchRepo.UpdateStatusWinner(ctx, exec, matchID, models.MatchStatusCancelled, nil)
	})
	if txErr != nil {
		return nil, asPersistenceFailure(txErr)
	}

	match.Status = models.MatchStatusCancelled
	event := &models.ScoreChangeEvent{MatchID: matchID, MatchStatus: match.Status}

	release()
	s.publisher.Publish(matchID, scoring.EnvelopeScoreUpdate, event)
	s.logger.Info("match cancelled", slog.Int("match_id", matchID))
	return event, nil
}

func tallySets(sets []*models.Set) scoring.SetTally {
	var tally scoring.SetTally
	for _, set := range sets {
		if set.Winner == nil {
			continue
		}
		if *set.Winner == scoring.Player1 {
			tally.P1Sets++
		} else {
			tally.P2Sets++
		}
	}
	return tally
}

func asPersistenceFailure(err error) error {
	if errors.Is(err, ErrPersistenceFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
}

func buildEvent(match *models.Match, set *models.Set, game *models.Game, tally scoring.SetTally) *models.ScoreChangeEvent {
	p1, p2 := scoring.Labels(scoring.GameState{
		P1Points: game.P1Points,
		P2Points: game.P2Points,
		Tiebreak: game.Tiebreak,
	})
	return &models.ScoreChangeEvent{
		MatchID:     match.ID,
		SetNumber:   set.SetNumber,
		GameNumber:  game.GameNumber,
		P1Label:     p1,
		P2Label:     p2,
		Tiebreak:    game.Tiebreak,
		Server:      scoring.ServerForPoint(game.Server, game.Tiebreak, game.P1Points+game.P2Points),
		P1Sets:      tally.P1Sets,
		P2Sets:      tally.P2Sets,
		P1Games:     set.P1Games,
		P2Games:     set.P2Games,
		MatchStatus: match.Status,
		Winner:      match.Winner,
	}
}

package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/courtside/match-scoring/models"
	"github.com/courtside/match-scoring/repositories"
	"github.com/courtside/match-scoring/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	archiveTimeout     = 30 * time.Second
	archiveConcurrency = 4
)

// ArchiveService exports the full point ledger of a completed match to
// object storage for audit. Uploads are best-effort and off the scoring
// path; a failed upload is logged, never surfaced to the courtside caller.
type ArchiveService struct {
	reader    repositories.SQLExecutor
	matchRepo repositories.MatchRepository
	setRepo   repositories.SetRepository
	gameRepo  repositories.GameRepository
	pointRepo repositories.PointRepository
	uploader  storage.FileUploader
	logger    *slog.Logger
}

func NewArchiveService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	setRepo repositories.SetRepository,
	gameRepo repositories.GameRepository,
	pointRepo repositories.PointRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) *ArchiveService {
	return &ArchiveService{
		reader:    db,
		matchRepo: matchRepo,
		setRepo:   setRepo,
		gameRepo:  gameRepo,
		pointRepo: pointRepo,
		uploader:  uploader,
		logger:    logger,
	}
}

type archivedGame struct {
	Game   *models.Game    `json:"game"`
	Points []*models.Point `json:"points"`
}

type archivedSet struct {
	Set   *models.Set    `json:"set"`
	Games []*archivedGame `json:"games"`
}

type matchArchive struct {
	Match      *models.Match  `json:"match"`
	Sets       []*archivedSet `json:"sets"`
	ArchivedAt time.Time      `json:"archived_at"`
}

func (s *ArchiveService) ArchiveMatch(ctx context.Context, matchID int) {
	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	location, err := s.archiveMatch(ctx, matchID)
	if err != nil {
		s.logger.Error("failed to archive match ledger",
			slog.Int("match_id", matchID), slog.Any("error", err))
		return
	}
	s.logger.Info("match ledger archived",
		slog.Int("match_id", matchID), slog.String("location", location))
}

func (s *ArchiveService) archiveMatch(ctx context.Context, matchID int) (string, error) {
	match, err := s.matchRepo.GetByID(ctx, s.reader, matchID)
	if err != nil {
		return "", fmt.Errorf("load match: %w", err)
	}

	sets, err := s.setRepo.ListByMatch(ctx, s.reader, matchID)
	if err != nil {
		return "", fmt.Errorf("load sets: %w", err)
	}

	archive := &matchArchive{Match: match, ArchivedAt: time.Now().UTC()}
	for _, set := range sets {
		games, err := s.gameRepo.ListBySet(ctx, s.reader, set.ID)
		if err != nil {
			return "", fmt.Errorf("load games for set %d: %w", set.ID, err)
		}
		archSet := &archivedSet{Set: set}
		for _, game := range games {
			archSet.Games = append(archSet.Games, &archivedGame{Game: game})
		}
		archive.Sets = append(archive.Sets, archSet)
	}

	// Ledger reads are independent per game; fetch them concurrently.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(archiveConcurrency)
	for _, archSet := range archive.Sets {
		for _, archGame := range archSet.Games {
			archGame := archGame
			group.Go(func() error {
				points, err := s.pointRepo.ListByGame(groupCtx, s.reader, archGame.Game.ID)
				if err != nil {
					return fmt.Errorf("load points for game %d: %w", archGame.Game.ID, err)
				}
				archGame.Points = points
				return nil
			})
		}
	}
	if err := group.Wait(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(archive)
	if err != nil {
		return "", fmt.Errorf("marshal archive: %w", err)
	}

	key := fmt.Sprintf("matches/%d/ledger-%s.json", matchID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("upload archive: %w", err)
	}
	return result.Location, nil
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/courtside/match-scoring/middleware"
	"github.com/courtside/match-scoring/services"
)

type ScoreHandler struct {
	scoringService  services.ScoringService
	snapshotService services.SnapshotService
}

func NewScoreHandler(scoringService services.ScoringService, snapshotService services.SnapshotService) *ScoreHandler {
	return &ScoreHandler{
		scoringService:  scoringService,
		snapshotService: snapshotService,
	}
}

// logCoachAction records which coach performed a mutation. The claim is
// present on every request behind the coach gate; a missing id only costs
// the audit line, never the request.
func logCoachAction(r *http.Request, action string, matchID int) {
	coachID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return
	}
	slog.Info("coach action",
		slog.String("action", action),
		slog.Int("match_id", matchID),
		slog.Int("coach_id", coachID))
}

func (h *ScoreHandler) StartMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.scoringService.StartMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	logCoachAction(r, "start_match", matchID)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"score": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type recordPointInput struct {
	Winner int `json:"winner"`
}

func (h *ScoreHandler) RecordPointHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input recordPointInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.scoringService.RecordPoint(r.Context(), matchID, input.Winner)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	logCoachAction(r, "record_point", matchID)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"score": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) CancelMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.scoringService.CancelMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	logCoachAction(r, "cancel_match", matchID)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"score": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) GetScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snapshot, err := h.snapshotService.GetSnapshot(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"score": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) gamePathParams(w http.ResponseWriter, r *http.Request) (matchID, setNumber, gameNumber int, ok bool) {
	var err error
	if matchID, err = getIDFromURL(r, "matchID"); err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, 0, false
	}
	if setNumber, err = getIDFromURL(r, "setNumber"); err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, 0, false
	}
	if gameNumber, err = getIDFromURL(r, "gameNumber"); err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, 0, false
	}
	return matchID, setNumber, gameNumber, true
}

func (h *ScoreHandler) ListGamePointsHandler(w http.ResponseWriter, r *http.Request) {
	matchID, setNumber, gameNumber, ok := h.gamePathParams(w, r)
	if !ok {
		return
	}

	points, err := h.snapshotService.ListGamePoints(r.Context(), matchID, setNumber, gameNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"points": points}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) AuditGameHandler(w http.ResponseWriter, r *http.Request) {
	matchID, setNumber, gameNumber, ok := h.gamePathParams(w, r)
	if !ok {
		return
	}

	if err := h.snapshotService.AuditGame(r.Context(), matchID, setNumber, gameNumber); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ledger": "consistent"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/candle/internal/app"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/pkg/logger"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, NewKind("api.me", ErrUnauthorized))
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{User: user})
}

// handleComplete handles POST /v1/games/complete.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	const op = "api.complete"
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, NewKind(op, ErrUnauthorized))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	st, dup, err := s.deps.Complete(r.Context(), user, app.Completion{
		PuzzleID:   req.PuzzleID,
		Date:       req.Date,
		Won:        req.Won,
		Score:      req.Score,
		GuessCount: req.GuessCount,
		HintsUsed:  req.HintsUsed,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, CompleteResponse{OK: true, Duplicate: dup, Stats: st})
}

// handleStats handles GET /v1/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats"
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, NewKind(op, ErrUnauthorized))
		return
	}
	st, err := s.deps.Stats(r.Context(), user)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Stats: st, WinRate: st.WinRate(), AverageScore: st.AverageScore()})
}

// handleHistory handles GET /v1/games/history?limit=N.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.history"
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, NewKind(op, ErrUnauthorized))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer")))
			return
		}
		limit = n
	}

	games, err := s.deps.History(r.Context(), user, limit)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	if games == nil {
		games = []model.GameRecord{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Games: games})
}

// fail maps service errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidRecord), errors.Is(err, app.ErrScoreOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, CodeInvalidRecord, WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, app.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, CodeUnavailable, WrapKind(op, ErrUnavailable, err))
	default:
		s.log.Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err),
			logger.String("requestId", middleware.GetReqID(r.Context())))
		writeError(w, http.StatusInternalServerError, CodeInternal, NewKind(op, ErrInternal))
	}
}

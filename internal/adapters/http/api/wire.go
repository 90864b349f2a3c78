package api

import (
	"errors"
	"strings"

	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/stats"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeBadRequest    = "bad_request"
	CodeUnauthorized  = "unauthorized"
	CodeInvalidRecord = "invalid_record"
	CodeUnavailable   = "unavailable"
	CodeInternal      = "internal_error"
)

// CompleteRequest is the body of POST /v1/games/complete.
type CompleteRequest struct {
	PuzzleID   string `json:"puzzleId"`
	Date       string `json:"date"`
	Won        bool   `json:"won"`
	Score      int    `json:"score"`
	GuessCount int    `json:"guessCount"`
	HintsUsed  int    `json:"hintsUsed"`
	Difficulty *int   `json:"difficulty,omitempty"`
}

func (c CompleteRequest) validate() error {
	switch {
	case strings.TrimSpace(c.PuzzleID) == "":
		return errors.New("missing puzzleId")
	case strings.TrimSpace(c.Date) == "":
		return errors.New("missing date")
	}
	return nil
}

// CompleteResponse acknowledges a completion. Duplicate is set when the
// puzzle was already on record; Stats is the aggregate either way.
type CompleteResponse struct {
	OK        bool              `json:"ok"`
	Duplicate bool              `json:"duplicate"`
	Stats     stats.PlayerStats `json:"stats"`
}

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	Stats        stats.PlayerStats `json:"stats"`
	WinRate      int               `json:"winRate"`
	AverageScore int               `json:"averageScore"`
}

// HistoryResponse is the body of GET /v1/games/history, newest first.
type HistoryResponse struct {
	Games []model.GameRecord `json:"games"`
}

// MeResponse is the body of GET /v1/me.
type MeResponse struct {
	User model.User `json:"user"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

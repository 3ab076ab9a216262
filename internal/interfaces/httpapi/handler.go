package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/freebetlabs/match-engine/internal/domain/match"
	"github.com/freebetlabs/match-engine/internal/domain/wager"
	"github.com/freebetlabs/match-engine/internal/usecase"
)

type Handler struct {
	matchService      *usecase.MatchService
	wagerService      *usecase.WagerService
	syncService       *usecase.SyncService
	settlementService *usecase.SettlementService
	fullSyncService   *usecase.FullSyncService
	logger            *slog.Logger
	validator         *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	wagerService *usecase.WagerService,
	syncService *usecase.SyncService,
	settlementService *usecase.SettlementService,
	fullSyncService *usecase.FullSyncService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		matchService:      matchService,
		wagerService:      wagerService,
		syncService:       syncService,
		settlementService: settlementService,
		fullSyncService:   fullSyncService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	matches, err := h.matchService.ListUpcoming(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	externalID := strings.TrimSpace(r.PathValue("externalID"))
	m, err := h.matchService.GetByExternalID(ctx, externalID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "external_id", externalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(m))
}

func (h *Handler) PlaceWager(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlaceWager")
	defer span.End()

	var req placeWagerRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	placed, err := h.wagerService.PlaceWager(ctx, usecase.PlaceWagerInput{
		UserID:          req.UserID,
		MatchExternalID: req.MatchExternalID,
		Selection:       req.Selection,
		Stake:           req.Stake,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "place wager failed",
			"user_id", req.UserID,
			"match_external_id", req.MatchExternalID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, wagerToDTO(placed))
}

func (h *Handler) ListWagers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWagers")
	defer span.End()

	rawUserID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	userID, err := strconv.ParseInt(rawUserID, 10, 64)
	if err != nil || userID <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: user_id query parameter must be a positive integer", usecase.ErrInvalidInput))
		return
	}

	wagers, err := h.wagerService.ListUserWagers(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "list wagers failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]wagerDTO, 0, len(wagers))
	for _, item := range wagers {
		items = append(items, wagerToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type placeWagerRequest struct {
	UserID          int64   `json:"user_id" validate:"required,gt=0"`
	MatchExternalID string  `json:"match_external_id" validate:"required"`
	Selection       string  `json:"selection" validate:"required,oneof=home away draw"`
	Stake           float64 `json:"stake" validate:"required,gt=0"`
}

type matchDTO struct {
	ExternalID   string   `json:"external_id"`
	SportKey     string   `json:"sport_key"`
	HomeTeam     string   `json:"home_team"`
	AwayTeam     string   `json:"away_team"`
	CommenceTime string   `json:"commence_time"`
	HomeOdds     *float64 `json:"home_odds"`
	DrawOdds     *float64 `json:"draw_odds"`
	AwayOdds     *float64 `json:"away_odds"`
	Completed    bool     `json:"completed"`
	HomeScore    *int     `json:"home_score"`
	AwayScore    *int     `json:"away_score"`
	Calculated   bool     `json:"calculated"`
	Result       *string  `json:"result,omitempty"`
}

type wagerDTO struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"user_id"`
	MatchExternalID string  `json:"match_external_id"`
	HomeTeam        string  `json:"home_team"`
	AwayTeam        string  `json:"away_team"`
	Selection       string  `json:"selection"`
	Stake           float64 `json:"stake"`
	Odds            float64 `json:"odds"`
	PotentialPayout float64 `json:"potential_payout"`
	Status          string  `json:"status"`
	CreatedAtUTC    string  `json:"created_at_utc"`
}

func matchToDTO(m match.Match) matchDTO {
	return matchDTO{
		ExternalID:   m.ExternalID,
		SportKey:     m.SportKey,
		HomeTeam:     m.HomeTeam,
		AwayTeam:     m.AwayTeam,
		CommenceTime: m.CommenceTime.UTC().Format(time.RFC3339),
		HomeOdds:     m.HomeOdds,
		DrawOdds:     m.DrawOdds,
		AwayOdds:     m.AwayOdds,
		Completed:    m.Completed,
		HomeScore:    m.HomeScore,
		AwayScore:    m.AwayScore,
		Calculated:   m.Calculated,
		Result:       m.Result,
	}
}

func wagerToDTO(v wager.Wager) wagerDTO {
	return wagerDTO{
		ID:              v.ID,
		UserID:          v.UserID,
		MatchExternalID: v.MatchExternalID,
		HomeTeam:        v.HomeTeam,
		AwayTeam:        v.AwayTeam,
		Selection:       v.Selection,
		Stake:           v.Stake,
		Odds:            v.Odds,
		PotentialPayout: v.PotentialPayout,
		Status:          v.Status,
		CreatedAtUTC:    v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

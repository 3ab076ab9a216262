package httpapi

import (
	"fmt"
	"net/http"

	"github.com/freebetlabs/match-engine/internal/usecase"
)

// The internal job endpoints back the external scheduler: each one runs a
// single pipeline stage synchronously and returns its report.

func (h *Handler) RunSyncOddsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncOddsJob")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	report, err := h.syncService.SyncOdds(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run sync odds job failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	h.matchService.InvalidateUpcoming(ctx)

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) RunSyncScoresJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncScoresJob")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	report, err := h.syncService.SyncScores(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run sync scores job failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	h.matchService.InvalidateUpcoming(ctx)

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) RunSettleJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSettleJob")
	defer span.End()

	if h.settlementService == nil {
		writeError(ctx, w, fmt.Errorf("%w: settlement service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	report, err := h.settlementService.Settle(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run settle job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) RunFullSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFullSyncJob")
	defer span.End()

	if h.fullSyncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: full sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.fullSyncService.Run(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run full sync job failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	h.matchService.InvalidateUpcoming(ctx)

	writeSuccess(ctx, w, http.StatusOK, result)
}

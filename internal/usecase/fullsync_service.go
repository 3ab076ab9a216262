package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/freebetlabs/match-engine/internal/platform/logging"
)

const (
	fullSyncTaskOdds   = "odds"
	fullSyncTaskScores = "scores"
)

// FullSyncTaskResult is one stage of a full sync run.
type FullSyncTaskResult struct {
	Task       string `json:"task"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// FullSyncResult aggregates a complete refresh: both feed pulls followed
// by a settlement pass.
type FullSyncResult struct {
	Tasks      []FullSyncTaskResult `json:"tasks"`
	Odds       OddsSyncReport       `json:"odds"`
	Scores     ScoresSyncReport     `json:"scores"`
	Settlement SettlementReport     `json:"settlement"`
}

type FullSyncService struct {
	sync       *SyncService
	settlement *SettlementService
	logger     *logging.Logger
}

func NewFullSyncService(sync *SyncService, settlement *SettlementService, logger *logging.Logger) *FullSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FullSyncService{
		sync:       sync,
		settlement: settlement,
		logger:     logger,
	}
}

// Run refreshes odds and scores concurrently through a bounded worker
// pool, then settles whatever became ready. The two feed pulls touch
// disjoint columns so they can merge in any order; settlement has to see
// the committed score rows, hence the barrier between stages.
func (s *FullSyncService) Run(ctx context.Context) (FullSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FullSyncService.Run")
	defer span.End()

	pool, err := ants.NewPool(2)
	if err != nil {
		return FullSyncResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu     sync.Mutex
		out    FullSyncResult
		wg     sync.WaitGroup
		tasks  = []string{fullSyncTaskOdds, fullSyncTaskScores}
		failed int
	)

	for _, task := range tasks {
		task := task
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()

			start := time.Now()
			row := FullSyncTaskResult{Task: task, Status: "success"}

			var runErr error
			switch task {
			case fullSyncTaskOdds:
				var report OddsSyncReport
				report, runErr = s.sync.SyncOdds(ctx)
				mu.Lock()
				out.Odds = report
				mu.Unlock()
			case fullSyncTaskScores:
				var report ScoresSyncReport
				report, runErr = s.sync.SyncScores(ctx)
				mu.Lock()
				out.Scores = report
				mu.Unlock()
			}

			if runErr != nil {
				row.Status = "failed"
				row.Message = runErr.Error()
			}
			row.DurationMs = time.Since(start).Milliseconds()

			mu.Lock()
			out.Tasks = append(out.Tasks, row)
			if runErr != nil {
				failed++
			}
			mu.Unlock()
		}); err != nil {
			wg.Done()
			return FullSyncResult{}, fmt.Errorf("submit %s task: %w", task, err)
		}
	}
	wg.Wait()

	if failed == len(tasks) {
		return out, fmt.Errorf("full sync: all feed pulls failed")
	}

	start := time.Now()
	settleRow := FullSyncTaskResult{Task: "settle", Status: "success"}
	settlement, err := s.settlement.Settle(ctx)
	if err != nil {
		settleRow.Status = "failed"
		settleRow.Message = err.Error()
		s.logger.ErrorContext(ctx, "full sync settlement failed", "error", err)
	} else {
		out.Settlement = settlement
	}
	settleRow.DurationMs = time.Since(start).Milliseconds()
	out.Tasks = append(out.Tasks, settleRow)

	return out, nil
}

package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTBRefresh recomputes the trial balance for a period.
	TaskTBRefresh = "ledger:tb_refresh"
)

// TBRefreshPayload selects the period to recompute. Empty bounds mean the
// current calendar month at execution time.
type TBRefreshPayload struct {
	PeriodStart string `json:"period_start,omitempty"`
	PeriodEnd   string `json:"period_end,omitempty"`
}

// NewTBRefreshTask constructs an Asynq task for a trial balance refresh.
func NewTBRefreshTask(payload TBRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTBRefresh, data), nil
}

package types

import "time"

// PipelineStatus is the terminal status of a pipeline run.
type PipelineStatus string

const (
	StatusDone        PipelineStatus = "DONE"
	StatusRateLimited PipelineStatus = "RATE_LIMITED"
	StatusFailed      PipelineStatus = "FAILED"
)

// PipelineResult is what a pipeline run hands back to the transport
// layer. Exactly one of the three shapes is populated: recipes for
// DONE, usage numbers for RATE_LIMITED, reason and error for FAILED.
type PipelineResult struct {
	Status    PipelineStatus `json:"status"`
	RequestID string         `json:"request_id"`

	Recipes []Recipe `json:"recipes,omitempty"`
	Cached  bool     `json:"cached"`

	UsedToday int       `json:"used_today,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	ResetsAt  time.Time `json:"-"`

	FailureReason string `json:"failure_reason,omitempty"`
	Err           error  `json:"-"`
}

// IngredientKey identifies one nutrition lookup: a slugged ingredient
// id plus the amount and unit parsed from the recipe's quantity text.
type IngredientKey struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// NutrientFact is one row of a nutrition lookup response.
type NutrientFact struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

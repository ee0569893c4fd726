package types

// GenerateRequest is the request body for recipe generation. Identity
// is filled in by the transport layer from the caller's token, never
// from the body.
type GenerateRequest struct {
	Ingredients   []string          `json:"ingredients" binding:"required"`
	Diet          string            `json:"diet"`
	Servings      int               `json:"servings"`
	CalorieTarget int               `json:"calorie_target"`
	Profile       map[string]string `json:"profile"`

	Identity string `json:"-"`
}

// DefaultServings is used when a request leaves servings unset or
// sends a non-positive value.
const DefaultServings = 2

// Normalize applies request defaults in place.
func (r *GenerateRequest) Normalize() {
	if r.Servings <= 0 {
		r.Servings = DefaultServings
	}
	if r.CalorieTarget < 0 {
		r.CalorieTarget = 0
	}
}

// GenerateResponse is the success body for recipe generation.
type GenerateResponse struct {
	RequestID string   `json:"request_id"`
	Recipes   []Recipe `json:"recipes"`
	Cached    bool     `json:"cached"`
}

// UsageResponse reports the caller's rate-limit consumption for the
// current UTC day.
type UsageResponse struct {
	UsedToday int    `json:"used_today"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	ResetsAt  string `json:"resets_at"`
}

package costing

import "fmt"

// EstimationError indicates malformed numeric tuning input outside its
// valid range. Degraded-but-valid conditions (missing metrics, missing
// supplier rates) are assumptions, never this error.
type EstimationError struct {
	Field   string
	Value   float64
	Message string
}

// Error returns the error message.
func (e *EstimationError) Error() string {
	return fmt.Sprintf("cost estimation: %s %v: %s", e.Field, e.Value, e.Message)
}

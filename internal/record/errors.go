package record

import "fmt"

// ValidationError is returned for a write whose start date falls after its end date.
type ValidationError struct {
	Process string
	Start   Date
	End     Date
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("start date must be ≤ end date for stage %s (start %s, end %s)", e.Process, e.Start, e.End)
}

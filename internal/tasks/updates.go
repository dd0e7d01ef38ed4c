package tasks

import (
	"fmt"

	"github.com/desertthunder/curator/internal/shared"
)

// ProgressUpdate represents a progress event during a relocation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number
	Total   int    // Total steps
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	AddToTarget Phase = iota
	RemoveFromSource
	Completed
)

func (p Phase) String() string {
	switch p {
	case AddToTarget:
		return "add_to_target"
	case RemoveFromSource:
		return "remove_from_source"
	case Completed:
		return "completed"
	default:
		return ""
	}
}

const relocationSteps = 2

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func addingUpdate(trackURI, targetID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddToTarget,
		Step:    1,
		Total:   relocationSteps,
		Message: fmt.Sprintf("Adding %s to %s...", shared.LastSegment(trackURI), targetID),
	}
}

func removingUpdate(trackURI, sourceID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemoveFromSource,
		Step:    2,
		Total:   relocationSteps,
		Message: fmt.Sprintf("Removing %s from %s...", shared.LastSegment(trackURI), sourceID),
	}
}

func completedUpdate(res *RelocationResult) ProgressUpdate {
	step := relocationSteps
	if res.Outcome == Failure {
		step = 1
	}
	return ProgressUpdate{
		Phase:   Completed,
		Step:    step,
		Total:   relocationSteps,
		Message: res.Summary(),
		Data:    res,
	}
}

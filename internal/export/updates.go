package export

import (
	"fmt"

	"mixport/internal/models"
)

// ProgressUpdate represents a progress event during a bulk export.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ExportStart Phase = iota
	ExportDone
	ExportError
)

func (p Phase) String() string {
	switch p {
	case ExportStart:
		return "export_start"
	case ExportDone:
		return "export_done"
	case ExportError:
		return "export_error"
	default:
		return ""
	}
}

func exportingUpdate(step, total int, platform models.Platform) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportStart,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting to %s...", step, total, platform.DisplayName()),
	}
}

func exportCompletedUpdate(step, total int, result *models.ExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase: ExportDone,
		Step:  step,
		Total: total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d exported, %d failed)",
			step, total, result.Platform.DisplayName(), result.ExportedTracks, result.FailedTracks),
		Data: result,
	}
}

func exportFailedUpdate(step, total int, platform models.Platform, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportError,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, platform.DisplayName(), err),
	}
}

// sendProgress delivers an update without blocking; slow consumers drop
// updates rather than stall the export.
func (s *Service) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}

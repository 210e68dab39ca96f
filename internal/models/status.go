package models

// TaskStatus tracks the lifecycle of an asynchronous processing step.
type TaskStatus string

// Lifecycle states shared by the OCR and grading axes.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether the status can no longer change.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// CanTransition reports whether moving from s to next is a valid lifecycle step.
// Valid paths are pending → processing → {completed | failed}; a pending task
// may also fail directly when its precondition is violated. Terminal states
// absorb.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	if s.IsTerminal() {
		return false
	}

	switch s {
	case TaskStatusPending:
		return next == TaskStatusProcessing || next == TaskStatusFailed
	case TaskStatusProcessing:
		return next == TaskStatusCompleted || next == TaskStatusFailed
	default:
		return false
	}
}

package sync

import "time"

// Kind names one synchronized entity kind.
type Kind string

const (
	KindTasks        Kind = "tasks"
	KindProgress     Kind = "progress"
	KindAchievements Kind = "achievements"
	KindStreaks      Kind = "streaks"
)

// Kinds is the fixed pass order of a full sync. The order is load-bearing:
// progress records reference task ids, and achievement awarding reads
// completed-task counts that should reflect just-synced task state.
var Kinds = []Kind{KindTasks, KindProgress, KindAchievements, KindStreaks}

// Phase is the position in the published sync state machine.
type Phase string

const (
	PhaseIdle    Phase = "IDLE"
	PhaseSyncing Phase = "SYNCING"
	PhaseSuccess Phase = "SUCCESS"
	PhaseError   Phase = "ERROR"
)

// State is the published engine state. A terminal Success or Error sticks
// until the next pass begins and overwrites it; there is no timed return
// to Idle.
type State struct {
	Phase   Phase     `json:"phase"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Result records the outcome of one per-kind pass.
type Result struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

package pipeline

import "fmt"

// Stage names one step of the processing state machine.
type Stage string

const (
	StageIngested   Stage = "ingested"
	StageClassified Stage = "classified"
	StageRouted     Stage = "routed"
	StageExtracted  Stage = "extracted"
	StageStored     Stage = "stored"
	StageCompleted  Stage = "completed"
	StageFailed     Stage = "failed"
)

// State is the explicit tagged value threaded through the pipeline.
// Failed is terminal and records which stage failed and why; every
// other stage advances linearly.
type State struct {
	Stage       Stage
	FailedStage Stage
	Reason      string
}

func Ingested() State {
	return State{Stage: StageIngested}
}

// Advance moves to the next linear stage. Calling it on a failed or
// completed state is a programming error.
func (s State) Advance(next Stage) State {
	if s.Stage == StageFailed || s.Stage == StageCompleted {
		panic(fmt.Sprintf("advance from terminal state %s", s.Stage))
	}
	return State{Stage: next}
}

// Fail transitions to the terminal failure state, recording the stage
// that was being attempted.
func (s State) Fail(at Stage, reason string) State {
	return State{Stage: StageFailed, FailedStage: at, Reason: reason}
}

func (s State) Terminal() bool {
	return s.Stage == StageCompleted || s.Stage == StageFailed
}

func (s State) String() string {
	if s.Stage == StageFailed {
		return fmt.Sprintf("failed(%s: %s)", s.FailedStage, s.Reason)
	}
	return string(s.Stage)
}

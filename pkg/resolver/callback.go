package resolver

import (
	"github.com/aquasecurity/trivy-java-resolver/pkg/progress"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

// Callback receives the progress of a resolution run.
//
// OnStateChanged is called on every state entry and repeatedly while artifacts are
// transferred; monitor is nil outside ResolvingArtifacts. Calls are never concurrent
// but may come from different goroutines.
//
// OnFinished is called exactly once. A nil slice means the run failed, never that
// there was nothing to fetch.
type Callback interface {
	OnStateChanged(state types.State, monitor *progress.Monitor, status string)
	OnFinished(files []string)
}

// Callbacks adapts plain functions to Callback. Nil fields are ignored.
type Callbacks struct {
	StateChanged func(state types.State, monitor *progress.Monitor, status string)
	Finished     func(files []string)
}

func (c Callbacks) OnStateChanged(state types.State, monitor *progress.Monitor, status string) {
	if c.StateChanged != nil {
		c.StateChanged(state, monitor, status)
	}
}

func (c Callbacks) OnFinished(files []string) {
	if c.Finished != nil {
		c.Finished(files)
	}
}

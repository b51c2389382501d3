package workflow

import (
	"errors"
	"fmt"
)

// Exit codes of the command.
const (
	ExitOK = 0
	// ExitFailed means the run failed before touching remote state.
	ExitFailed = 1
	// ExitPartial means the run failed after changing remote state; the
	// journal lists what needs manual remediation.
	ExitPartial = 2
)

var ErrVolumeNotFound = errors.New("volume not found")

type Step int

const (
	StepLoadConfig Step = iota + 1
	StepSetupClient
	StepLocateVolume
	StepListSnapshots
	StepSelectSnapshot
	StepClone
	StepSwapExports
	StepCopyPolicies
	StepDone
)

var stepNames = map[Step]string{
	StepLoadConfig:     "load_config",
	StepSetupClient:    "setup_client",
	StepLocateVolume:   "locate_volume",
	StepListSnapshots:  "list_snapshots",
	StepSelectSnapshot: "select_snapshot",
	StepClone:          "clone",
	StepSwapExports:    "swap_exports",
	StepCopyPolicies:   "copy_policies",
	StepDone:           "done",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step_%d", int(s))
}

// StepError is a failed workflow step. Mutated is set when remote state
// had already been changed by this run.
type StepError struct {
	Step    Step
	Mutated bool
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var se *StepError
	if errors.As(err, &se) && se.Mutated {
		return ExitPartial
	}
	return ExitFailed
}

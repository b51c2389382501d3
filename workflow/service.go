package workflow

import (
	"context"
	"fmt"
	"io"

	"github.com/erikmagkekse/zadara-clone-swap/credentials"
	"github.com/erikmagkekse/zadara-clone-swap/zadara"
)

// VolumeService is the slice of the VPSA API the workflow drives.
// *zadara.VPSAClient implements it.
type VolumeService interface {
	GetVolumeByExportPath(ctx context.Context, exportPath string) (*zadara.Volume, error)
	GetSnapshotsForCG(ctx context.Context, cgName string) ([]zadara.Snapshot, error)
	CloneVolume(ctx context.Context, cgName, cloneName, snapshotID string) (*zadara.Volume, error)
	GetVolumeByDisplayName(ctx context.Context, displayName string) (*zadara.Volume, error)
	DetachVolumeFromAllServers(ctx context.Context, volumeName string) ([]string, error)
	UpdateExportName(ctx context.Context, volumeName, exportName string) (string, error)
	AttachVolumeToServers(ctx context.Context, volumeName string, servers []string) ([]string, error)
	GetSnapshotPoliciesForCG(ctx context.Context, cgName string) ([]zadara.Policy, error)
	AttachSnapshotPolicyToCG(ctx context.Context, cgName, policyName string) error
}

// ConnectFunc sets up a VolumeService for the VPSA hosting exportPath.
type ConnectFunc func(ctx context.Context, exportPath string) (VolumeService, error)

// UI abstracts operator interaction so the workflow stays testable.
type UI interface {
	Printf(format string, a ...any)
	Ask(prompt string) (string, error)
}

type consoleUI struct {
	out io.Writer
	in  credentials.Prompter
}

// NewConsoleUI prints to out and reads answers through in, which should
// share its reader with the credential prompter so buffered input is not
// lost. See credentials.TerminalPrompter.Visible.
func NewConsoleUI(out io.Writer, in credentials.Prompter) UI {
	return &consoleUI{out: out, in: in}
}

func (u *consoleUI) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(u.out, format, a...)
}

func (u *consoleUI) Ask(prompt string) (string, error) {
	return u.in.Prompt(prompt)
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/erikmagkekse/zadara-clone-swap/zadara"

	"github.com/rs/zerolog/log"
)

var ErrNoSnapshots = errors.New("no snapshots available")

// SnapshotMenu numbers snapshots from 1 in the order the VPSA returned them.
type SnapshotMenu struct {
	ExportPath string
	snapshots  []zadara.Snapshot
}

// ListSnapshots fetches the snapshots of vol's consistency group. At least
// one snapshot is required.
func ListSnapshots(ctx context.Context, svc VolumeService, vol *zadara.Volume) (*SnapshotMenu, error) {
	snaps, err := svc.GetSnapshotsForCG(ctx, vol.CGName)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", vol.CGName, err)
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w for volume with export_path(%s)", ErrNoSnapshots, vol.NFSExportPath)
	}
	log.Debug().Int("count", len(snaps)).Str("cg", vol.CGName).Msg("snapshots listed")

	return &SnapshotMenu{ExportPath: vol.NFSExportPath, snapshots: snaps}, nil
}

func (m *SnapshotMenu) Len() int {
	return len(m.snapshots)
}

// Get returns the snapshot shown at 1-based index i.
func (m *SnapshotMenu) Get(i int) (zadara.Snapshot, bool) {
	if i < 1 || i > len(m.snapshots) {
		return zadara.Snapshot{}, false
	}
	return m.snapshots[i-1], true
}

// Entries returns the index to snapshot mapping shown to the operator.
func (m *SnapshotMenu) Entries() map[int]zadara.Snapshot {
	out := make(map[int]zadara.Snapshot, len(m.snapshots))
	for i, s := range m.snapshots {
		out[i+1] = s
	}
	return out
}

func (m *SnapshotMenu) Print(ui UI) {
	ui.Printf("available snapshots for volume with export_path(%s):\n", m.ExportPath)
	for i, s := range m.snapshots {
		ui.Printf("%d: %s [%s]\n", i+1, s.ModifiedAt, s.DisplayName)
	}
}

// Select asks until the operator enters an index within the menu.
func (m *SnapshotMenu) Select(ui UI) (zadara.Snapshot, error) {
	prompt := fmt.Sprintf("which snapshot to clone? [1..%d]: ", len(m.snapshots))
	for {
		answer, err := ui.Ask(prompt)
		if err != nil {
			return zadara.Snapshot{}, fmt.Errorf("read snapshot selection: %w", err)
		}
		i, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			continue
		}
		if s, ok := m.Get(i); ok {
			return s, nil
		}
	}
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erikmagkekse/zadara-clone-swap/utils"
	"github.com/erikmagkekse/zadara-clone-swap/zadara"

	"github.com/rs/zerolog/log"
)

const (
	DefaultCloneChecks   = 5
	DefaultCloneInterval = 5 * time.Second

	cloneNameLayout = "060102_1504"
)

var ErrCloneNotMaterialized = errors.New("clone did not show up")

// Cloner clones a volume from a snapshot and waits for the clone to exist.
type Cloner struct {
	svc       VolumeService
	clock     utils.Clock
	maxChecks int
	interval  time.Duration
}

func NewCloner(svc VolumeService, clock utils.Clock, maxChecks int, interval time.Duration) *Cloner {
	if maxChecks < 0 {
		maxChecks = 0
	}
	return &Cloner{svc: svc, clock: clock, maxChecks: maxChecks, interval: interval}
}

// CloneName is the display name of a clone made at t.
func CloneName(t time.Time) string {
	return "clone_on_" + t.Format(cloneNameLayout)
}

// Clone requests a clone of vol's consistency group at snapshotID. When the
// VPSA does not return the clone right away it is looked up by display name
// up to maxChecks times, sleeping interval before each lookup.
func (c *Cloner) Clone(ctx context.Context, vol *zadara.Volume, snapshotID string, j *Journal) (*zadara.Volume, error) {
	name := CloneName(c.clock.Now())

	log.Debug().Str("cg", vol.CGName).Str("clone", name).Str("snapshot", snapshotID).Msg("cloning volume")

	clone, err := c.svc.CloneVolume(ctx, vol.CGName, name, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("clone %s from snapshot %s: %w", vol.CGName, snapshotID, err)
	}
	j.Record("clone", "requested clone %s of %s from snapshot %s", name, vol.CGName, snapshotID)

	for i := 0; clone == nil && i < c.maxChecks; i++ {
		if err := c.clock.Sleep(ctx, c.interval); err != nil {
			return nil, err
		}
		clone, err = c.svc.GetVolumeByDisplayName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("look up clone %s: %w", name, err)
		}
		log.Debug().Int("attempt", i+1).Bool("found", clone != nil).Str("clone", name).Msg("checked for clone")
	}

	if clone == nil {
		return nil, fmt.Errorf("%w: %s after %d checks", ErrCloneNotMaterialized, name, c.maxChecks)
	}

	log.Debug().Str("name", clone.Name).Str("cg", clone.CGName).Str("export_path", clone.NFSExportPath).Msg("cloned volume")
	return clone, nil
}

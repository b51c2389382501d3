package workflow

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/erikmagkekse/zadara-clone-swap/utils"
	"github.com/erikmagkekse/zadara-clone-swap/zadara"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const inactiveSuffixLayout = "060102-1504"

type SwapResult struct {
	SourceExportPath string
	CloneExportPath  string
	Servers          []string
}

// Swapper moves the source volume's NFS identity onto its clone.
type Swapper struct {
	svc   VolumeService
	clock utils.Clock
}

func NewSwapper(svc VolumeService, clock utils.Clock) *Swapper {
	return &Swapper{svc: svc, clock: clock}
}

// InactiveExportPath is where the source export is parked during a swap at t.
func InactiveExportPath(exportPath string, t time.Time) string {
	return exportPath + "_" + t.Format(inactiveSuffixLayout)
}

// Swap detaches source from its servers, renames its export out of the
// way, gives clone the original export name and attaches clone to the
// servers source had. The four calls are not atomic: a failure leaves the
// steps done so far in place, as recorded in j.
func (s *Swapper) Swap(ctx context.Context, source, clone *zadara.Volume, j *Journal) (*SwapResult, error) {
	original := source.NFSExportPath
	inactive := InactiveExportPath(original, s.clock.Now())

	log.Debug().
		Str("inactive", inactive).
		Str("original", original).
		Str("clone", clone.NFSExportPath).
		Msg("preparing to shift export paths")

	servers, err := s.svc.DetachVolumeFromAllServers(ctx, source.Name)
	if err != nil {
		return nil, fmt.Errorf("detach %s from servers: %w", source.Name, err)
	}
	servers = lo.Uniq(servers)
	j.Record("detach", "detached %s from servers %v", source.Name, servers)
	log.Debug().Strs("servers", servers).Str("volume", source.Name).Msg("detached source volume from all servers")

	srcPath, err := s.svc.UpdateExportName(ctx, source.Name, path.Base(inactive))
	if err != nil {
		return nil, fmt.Errorf("rename export of %s: %w", source.Name, err)
	}
	j.Record("rename", "renamed export of %s from %s to %s", source.Name, original, srcPath)

	clonePath, err := s.svc.UpdateExportName(ctx, clone.Name, path.Base(original))
	if err != nil {
		return nil, fmt.Errorf("rename export of %s: %w", clone.Name, err)
	}
	j.Record("rename", "renamed export of %s from %s to %s", clone.Name, clone.NFSExportPath, clonePath)

	if len(servers) == 0 {
		log.Warn().Str("volume", source.Name).Msg("source volume had no servers attached, nothing to attach clone to")
	} else {
		attached, err := s.svc.AttachVolumeToServers(ctx, clone.Name, servers)
		if err != nil {
			return nil, fmt.Errorf("attach %s to servers %v: %w", clone.Name, servers, err)
		}
		j.Record("attach", "attached %s to servers %v", clone.Name, servers)
		if missing, _ := lo.Difference(servers, attached); len(missing) > 0 {
			return nil, fmt.Errorf("clone %s not attached to servers %v", clone.Name, missing)
		}
		log.Debug().Strs("servers", attached).Str("volume", clone.Name).Msg("attached all servers to clone volume")
	}

	log.Debug().Str("source", srcPath).Str("clone", clonePath).Msg("export paths shifted")

	return &SwapResult{
		SourceExportPath: srcPath,
		CloneExportPath:  clonePath,
		Servers:          servers,
	}, nil
}

package workflow

import (
	"context"
	"fmt"

	"github.com/erikmagkekse/zadara-clone-swap/zadara"

	"github.com/rs/zerolog/log"
)

// CopyPolicies attaches every snapshot policy of source's consistency group
// to clone's. Policies already on the clone are left alone.
func CopyPolicies(ctx context.Context, svc VolumeService, source, clone *zadara.Volume, j *Journal) ([]zadara.Policy, error) {
	policies, err := svc.GetSnapshotPoliciesForCG(ctx, source.CGName)
	if err != nil {
		return nil, fmt.Errorf("list snapshot policies of %s: %w", source.CGName, err)
	}

	names := make([]string, 0, len(policies))
	for _, p := range policies {
		names = append(names, p.Name)
	}
	log.Debug().Strs("policies", names).Str("cg", source.CGName).Msg("policies from source volume")

	for _, p := range policies {
		if err := svc.AttachSnapshotPolicyToCG(ctx, clone.CGName, p.Name); err != nil {
			return nil, fmt.Errorf("attach snapshot policy %s to %s: %w", p.Name, clone.CGName, err)
		}
		j.Record("policy", "attached snapshot policy %s to %s", p.Name, clone.CGName)
	}

	log.Debug().Str("cg", clone.CGName).Msg("policies now attached to clone volume as well")
	return policies, nil
}

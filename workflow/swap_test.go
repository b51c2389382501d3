package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/erikmagkekse/zadara-clone-swap/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInactiveExportPath(t *testing.T) {
	assert.Equal(t, "10.0.0.5:/export/vol1_240102-1504", InactiveExportPath("10.0.0.5:/export/vol1", testTime))
}

func TestSwap(t *testing.T) {
	ctx := context.Background()

	t.Run("moves servers and export names", func(t *testing.T) {
		svc := newMemService()
		clone := cloneVolume()
		clock := &utils.MockClock{T: testTime}
		j := NewJournal(clock, "")

		res, err := NewSwapper(svc, clock).Swap(ctx, svc.volumes[0], clone, j)
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"srv-a", "srv-b"}, svc.servers["volume-2"])
		assert.ElementsMatch(t, []string{"srv-a", "srv-b"}, res.Servers)
		assert.Empty(t, svc.servers["volume-1"])

		assert.Equal(t, []string{"volume-1=vol1_240102-1504", "volume-2=vol1"}, svc.renames)
		assert.Equal(t, "10.0.0.5:/export/vol1_240102-1504", res.SourceExportPath)
		assert.Equal(t, "10.0.0.5:/export/vol1", res.CloneExportPath)

		actions := make([]string, 0, len(j.Entries))
		for _, e := range j.Entries {
			actions = append(actions, e.Action)
		}
		assert.Equal(t, []string{"detach", "rename", "rename", "attach"}, actions)
	})

	t.Run("no servers attached", func(t *testing.T) {
		svc := newMemService()
		svc.servers["volume-1"] = nil
		svc.errs["AttachVolumeToServers"] = errors.New("must not be called")

		res, err := NewSwapper(svc, &utils.MockClock{T: testTime}).Swap(ctx, svc.volumes[0], cloneVolume(), nil)
		require.NoError(t, err)
		assert.Empty(t, res.Servers)
		assert.Empty(t, svc.servers["volume-2"])
	})

	t.Run("failure after detach keeps progress", func(t *testing.T) {
		svc := newMemService()
		svc.errs["UpdateExportName"] = errors.New("boom")
		clock := &utils.MockClock{T: testTime}
		j := NewJournal(clock, "")

		_, err := NewSwapper(svc, clock).Swap(ctx, svc.volumes[0], cloneVolume(), j)
		require.Error(t, err)
		assert.True(t, j.Mutated())
		require.Len(t, j.Entries, 1)
		assert.Equal(t, "detach", j.Entries[0].Action)
	})

	t.Run("detach fails", func(t *testing.T) {
		svc := newMemService()
		svc.errs["DetachVolumeFromAllServers"] = errors.New("boom")
		j := NewJournal(&utils.MockClock{T: testTime}, "")

		_, err := NewSwapper(svc, &utils.MockClock{T: testTime}).Swap(ctx, svc.volumes[0], cloneVolume(), j)
		require.Error(t, err)
		assert.False(t, j.Mutated())
	})
}

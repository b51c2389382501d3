package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMetrics(t *testing.T) {
	connect := func(context.Context, string) (VolumeService, error) {
		return nil, errors.New("console unreachable")
	}
	_, err := New(Options{ExportPath: "10.0.0.5:/export/vol1"}, connect, &scriptedUI{}, nil).Run(context.Background())
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "clone_swap.prom")
	require.NoError(t, WriteMetrics(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "zadara_clone_swap_workflow_steps_total")
	assert.Contains(t, string(data), `step="setup_client"`)
	assert.Contains(t, string(data), "zadara_clone_swap_workflow_step_duration_seconds")
}

func TestWriteMetricsBadPath(t *testing.T) {
	err := WriteMetrics(filepath.Join(t.TempDir(), "missing", "clone_swap.prom"))
	assert.Error(t, err)
}

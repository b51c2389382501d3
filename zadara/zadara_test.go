package zadara_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/erikmagkekse/zadara-clone-swap/credentials"
	"github.com/erikmagkekse/zadara-clone-swap/zadara"
	"github.com/erikmagkekse/zadara-clone-swap/zadara/fake"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

const (
	consoleToken = "console-secret"
	vpsaToken    = "vpsa-secret"
	exportPath   = "10.0.0.5:/export/vol1"
)

func newVPSA() *fake.VPSA {
	return &fake.VPSA{
		VPSA:  zadara.VPSA{ID: 7, Name: "prod", Status: zadara.VPSAStatusCreated},
		Token: vpsaToken,
		Volumes: []*zadara.Volume{
			{Name: "volume-00000001", DisplayName: "vol1", CGName: "cg-00000001", NFSExportPath: exportPath},
			{Name: "volume-00000009", DisplayName: "iscsi-lun", CGName: "cg-00000009"},
		},
		Servers: map[string][]string{"volume-00000001": {"srv-a", "srv-b"}},
		Snapshots: map[string][]zadara.Snapshot{
			"cg-00000001": {
				{Name: "snap-2", DisplayName: "daily-2", ModifiedAt: "2024-01-02"},
				{Name: "snap-1", DisplayName: "daily-1", ModifiedAt: "2024-01-01"},
			},
		},
		Policies: map[string][]zadara.Policy{
			"cg-00000001": {{Name: "policy-1"}, {Name: "policy-2"}},
		},
		CloneSync: true,
	}
}

func connect(t *testing.T, srv *fake.Server, id int) *zadara.VPSAClient {
	t.Helper()
	return zadara.NewVPSAClient(zadara.NewConsoleClient(srv.URL, consoleToken), vpsaToken, id)
}

func TestVPSAByExportPath(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		other := &fake.VPSA{
			VPSA:  zadara.VPSA{ID: 3, Name: "other", Status: zadara.VPSAStatusCreated},
			Token: "other-secret",
		}
		sleeping := &fake.VPSA{
			VPSA:  zadara.VPSA{ID: 4, Name: "sleeping", Status: zadara.VPSAStatusHibernated},
			Token: vpsaToken,
		}
		srv := fake.New(consoleToken, other, sleeping, newVPSA())
		defer srv.Close()

		v, err := zadara.NewConsoleClient(srv.URL, consoleToken).VPSAByExportPath(ctx, exportPath, vpsaToken)
		require.NoError(t, err)
		assert.Equal(t, 7, v.ID)
	})

	t.Run("hibernated", func(t *testing.T) {
		vpsa := newVPSA()
		vpsa.Status = zadara.VPSAStatusHibernated
		srv := fake.New(consoleToken, vpsa)
		defer srv.Close()

		_, err := zadara.NewConsoleClient(srv.URL, consoleToken).VPSAByExportPath(ctx, exportPath, vpsaToken)
		assert.ErrorIs(t, err, zadara.ErrVPSANotFound)
	})

	t.Run("unknown export path", func(t *testing.T) {
		srv := fake.New(consoleToken, newVPSA())
		defer srv.Close()

		_, err := zadara.NewConsoleClient(srv.URL, consoleToken).VPSAByExportPath(ctx, "10.0.0.5:/export/nope", vpsaToken)
		assert.ErrorIs(t, err, zadara.ErrVPSANotFound)
	})

	t.Run("bad console token", func(t *testing.T) {
		srv := fake.New(consoleToken, newVPSA())
		defer srv.Close()

		_, err := zadara.NewConsoleClient(srv.URL, "wrong").VPSAByExportPath(ctx, exportPath, vpsaToken)
		require.Error(t, err)
		assert.True(t, zadara.IsUnauthorized(err))
	})
}

func TestConnector(t *testing.T) {
	srv := fake.New(consoleToken, newVPSA())
	defer srv.Close()

	c := &zadara.Connector{
		ConsoleURL: srv.URL,
		Tokens:     credentials.NewResolver(credentials.Tokens{Console: consoleToken, VPSA: vpsaToken}, nil),
	}
	client, err := c.Connect(context.Background(), exportPath)
	require.NoError(t, err)
	assert.Equal(t, 7, client.ID())

	vol, err := client.GetVolumeByExportPath(context.Background(), exportPath)
	require.NoError(t, err)
	require.NotNil(t, vol)
	assert.Equal(t, "volume-00000001", vol.Name)
}

func TestBlockVolumesIgnored(t *testing.T) {
	ctx := context.Background()
	vpsa := newVPSA()
	vpsa.Volumes = append(vpsa.Volumes, &zadara.Volume{Name: "volume-00000010"})
	srv := fake.New(consoleToken, vpsa)
	defer srv.Close()

	v, err := zadara.NewConsoleClient(srv.URL, consoleToken).VPSAByExportPath(ctx, exportPath, vpsaToken)
	require.NoError(t, err)
	assert.Equal(t, 7, v.ID)

	c := connect(t, srv, 7)
	vols, err := c.ListVolumes(ctx)
	require.NoError(t, err)
	require.Len(t, vols, 1)
	assert.Equal(t, "volume-00000001", vols[0].Name)

	vol, err := c.GetVolumeByDisplayName(ctx, "iscsi-lun")
	require.NoError(t, err)
	assert.Nil(t, vol)
}

func TestVPSAClient(t *testing.T) {
	ctx := context.Background()

	t.Run("lookups", func(t *testing.T) {
		srv := fake.New(consoleToken, newVPSA())
		defer srv.Close()
		c := connect(t, srv, 7)

		vol, err := c.GetVolumeByDisplayName(ctx, "vol1")
		require.NoError(t, err)
		require.NotNil(t, vol)
		assert.Equal(t, "cg-00000001", vol.CGName)

		vol, err = c.GetVolumeByDisplayName(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, vol)

		snaps, err := c.GetSnapshotsForCG(ctx, "cg-00000001")
		require.NoError(t, err)
		require.Len(t, snaps, 2)
		assert.Equal(t, "snap-2", snaps[0].Name)

		snaps, err = c.GetSnapshotsForCG(ctx, "cg-unknown")
		require.NoError(t, err)
		assert.Empty(t, snaps)
	})

	t.Run("clone sync", func(t *testing.T) {
		srv := fake.New(consoleToken, newVPSA())
		defer srv.Close()
		c := connect(t, srv, 7)

		clone, err := c.CloneVolume(ctx, "cg-00000001", "clone_on_240101_1200", "snap-1")
		require.NoError(t, err)
		require.NotNil(t, clone)
		assert.Equal(t, "clone_on_240101_1200", clone.DisplayName)
		assert.Equal(t, "10.0.0.5:/export/clone_on_240101_1200", clone.NFSExportPath)
	})

	t.Run("clone async", func(t *testing.T) {
		vpsa := newVPSA()
		vpsa.CloneSync = false
		vpsa.CloneReadyAfter = 1
		srv := fake.New(consoleToken, vpsa)
		defer srv.Close()
		c := connect(t, srv, 7)

		clone, err := c.CloneVolume(ctx, "cg-00000001", "clone_on_240101_1200", "snap-1")
		require.NoError(t, err)
		assert.Nil(t, clone)

		vol, err := c.GetVolumeByDisplayName(ctx, "clone_on_240101_1200")
		require.NoError(t, err)
		assert.Nil(t, vol)

		vol, err = c.GetVolumeByDisplayName(ctx, "clone_on_240101_1200")
		require.NoError(t, err)
		assert.NotNil(t, vol)
	})

	t.Run("clone unknown snapshot", func(t *testing.T) {
		srv := fake.New(consoleToken, newVPSA())
		defer srv.Close()

		_, err := connect(t, srv, 7).CloneVolume(ctx, "cg-00000001", "x", "snap-9")
		require.Error(t, err)
		assert.True(t, zadara.IsNotFound(err))
	})

	t.Run("detach rename attach", func(t *testing.T) {
		srv := fake.New(consoleToken, newVPSA())
		defer srv.Close()
		c := connect(t, srv, 7)

		servers, err := c.DetachVolumeFromAllServers(ctx, "volume-00000001")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"srv-a", "srv-b"}, servers)
		assert.Empty(t, srv.AttachedServers(7, "volume-00000001"))

		servers, err = c.DetachVolumeFromAllServers(ctx, "volume-00000001")
		require.NoError(t, err)
		assert.Empty(t, servers)

		newPath, err := c.UpdateExportName(ctx, "volume-00000001", "vol1_240101-1200")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.5:/export/vol1_240101-1200", newPath)

		attached, err := c.AttachVolumeToServers(ctx, "volume-00000001", []string{"srv-c"})
		require.NoError(t, err)
		assert.Equal(t, []string{"srv-c"}, attached)
	})

	t.Run("policies", func(t *testing.T) {
		srv := fake.New(consoleToken, newVPSA())
		defer srv.Close()
		c := connect(t, srv, 7)

		policies, err := c.GetSnapshotPoliciesForCG(ctx, "cg-00000001")
		require.NoError(t, err)
		require.Len(t, policies, 2)

		require.NoError(t, c.AttachSnapshotPolicyToCG(ctx, "cg-other", "policy-1"))
		assert.Equal(t, []string{"policy-1"}, srv.PolicyNames(7, "cg-other"))
	})

	t.Run("injected failure", func(t *testing.T) {
		srv := fake.New(consoleToken, newVPSA())
		defer srv.Close()
		srv.Fail("attach_volume", http.StatusInternalServerError)

		_, err := connect(t, srv, 7).AttachVolumeToServers(ctx, "volume-00000001", []string{"srv-a"})
		var ae *zadara.APIError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, "attach_volume", ae.Operation)
		assert.Equal(t, http.StatusInternalServerError, ae.StatusCode)
	})

	t.Run("wrong access key", func(t *testing.T) {
		srv := fake.New(consoleToken, newVPSA())
		defer srv.Close()

		c := zadara.NewVPSAClient(zadara.NewConsoleClient(srv.URL, consoleToken), "nope", 7)
		_, err := c.ListVolumes(ctx)
		assert.True(t, zadara.IsUnauthorized(err))
	})
}

func TestDecoding(t *testing.T) {
	ctx := context.Background()

	serve := func(body string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}))
	}

	tests := []struct {
		name string
		body string
		call func(c *zadara.VPSAClient) error
	}{
		{
			name: "matched volume without cg_name",
			body: `{"response":{"status":0,"volumes":[{"name":"v0"},{"name":"v1","nfs_export_path":"/e/v1"}]}}`,
			call: func(c *zadara.VPSAClient) error { _, err := c.GetVolumeByExportPath(ctx, "/e/v1"); return err },
		},
		{
			name: "matched volume without name",
			body: `{"response":{"status":0,"volumes":[{"display_name":"clone","cg_name":"cg","nfs_export_path":"/e/c"}]}}`,
			call: func(c *zadara.VPSAClient) error { _, err := c.GetVolumeByDisplayName(ctx, "clone"); return err },
		},
		{
			name: "snapshot without name",
			body: `{"response":{"status":0,"snapshots":[{"display_name":"daily"}]}}`,
			call: func(c *zadara.VPSAClient) error { _, err := c.GetSnapshotsForCG(ctx, "cg"); return err },
		},
		{
			name: "policy without name",
			body: `{"response":{"status":0,"snapshot_policies":[{"display_name":"hourly"}]}}`,
			call: func(c *zadara.VPSAClient) error { _, err := c.GetSnapshotPoliciesForCG(ctx, "cg"); return err },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := serve(tt.body)
			defer ts.Close()

			err := tt.call(zadara.NewVPSAClient(zadara.NewConsoleClient(ts.URL, "x"), "y", 1))
			var de *zadara.DecodeError
			assert.True(t, errors.As(err, &de), "got %v", err)
		})
	}

	t.Run("non-zero status", func(t *testing.T) {
		ts := serve(`{"response":{"status":5,"message":"busy"}}`)
		defer ts.Close()

		_, err := zadara.NewVPSAClient(zadara.NewConsoleClient(ts.URL, "x"), "y", 1).ListVolumes(ctx)
		var ae *zadara.APIError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, 5, ae.Status)
		assert.Equal(t, "list_volumes", ae.Operation)
	})

	t.Run("missing envelope", func(t *testing.T) {
		ts := serve(`{"volumes":[]}`)
		defer ts.Close()

		_, err := zadara.NewVPSAClient(zadara.NewConsoleClient(ts.URL, "x"), "y", 1).ListVolumes(ctx)
		require.Error(t, err)
	})
}

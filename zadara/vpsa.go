package zadara

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// VPSAClient runs volume operations on one VPSA through the console proxy.
type VPSAClient struct {
	id int
	t  *transport
}

func NewVPSAClient(console *ConsoleClient, token string, id int) *VPSAClient {
	return &VPSAClient{
		id: id,
		t:  newTransport(console.vpsaURL(id), headerAccessKey, token, true),
	}
}

func (c *VPSAClient) ID() int {
	return c.id
}

// ListVolumes returns the NFS volumes of the VPSA. Block volumes carry no
// export path and are left out. Records are not validated here; lookups
// validate the volume they return.
func (c *VPSAClient) ListVolumes(ctx context.Context) ([]Volume, error) {
	var resp VolumeListResponse
	if err := c.t.do(ctx, "list_volumes", http.MethodGet, "/api/volumes.json", nil, &resp); err != nil {
		return nil, err
	}
	vols := make([]Volume, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		if v.NFSExportPath == "" {
			log.Trace().Str("volume", v.Name).Int("vpsa", c.id).Msg("skipping volume without nfs export")
			continue
		}
		vols = append(vols, v)
	}
	return vols, nil
}

// GetVolumeByExportPath returns nil without error when nothing matches.
func (c *VPSAClient) GetVolumeByExportPath(ctx context.Context, exportPath string) (*Volume, error) {
	return c.findVolume(ctx, func(v *Volume) bool { return v.NFSExportPath == exportPath })
}

// GetVolumeByDisplayName returns nil without error when nothing matches.
func (c *VPSAClient) GetVolumeByDisplayName(ctx context.Context, displayName string) (*Volume, error) {
	return c.findVolume(ctx, func(v *Volume) bool { return v.DisplayName == displayName })
}

func (c *VPSAClient) findVolume(ctx context.Context, match func(*Volume) bool) (*Volume, error) {
	vols, err := c.ListVolumes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range vols {
		if match(&vols[i]) {
			if err := vols[i].validate(); err != nil {
				return nil, err
			}
			return &vols[i], nil
		}
	}
	return nil, nil
}

func (c *VPSAClient) GetSnapshotsForCG(ctx context.Context, cgName string) ([]Snapshot, error) {
	var resp SnapshotListResponse
	path := "/api/consistency_groups/" + url.PathEscape(cgName) + "/snapshots.json"
	if err := c.t.do(ctx, "list_snapshots", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Snapshots {
		if err := resp.Snapshots[i].validate(); err != nil {
			return nil, err
		}
	}
	return resp.Snapshots, nil
}

// CloneVolume asks for a clone of cgName at snapshotID. The VPSA may
// create the clone asynchronously, in which case the result is nil and
// the caller looks it up by display name later.
func (c *VPSAClient) CloneVolume(ctx context.Context, cgName, cloneName, snapshotID string) (*Volume, error) {
	var resp VolumeResponse
	path := "/api/consistency_groups/" + url.PathEscape(cgName) + "/clone.json"
	req := CloneRequest{Name: cloneName, Snapshot: snapshotID}
	if err := c.t.do(ctx, "clone_volume", http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	if resp.Volume == nil {
		return nil, nil
	}
	if err := resp.Volume.validate(); err != nil {
		return nil, err
	}
	return resp.Volume, nil
}

func (c *VPSAClient) GetServersForVolume(ctx context.Context, volumeName string) ([]string, error) {
	var resp ServerListResponse
	path := "/api/volumes/" + url.PathEscape(volumeName) + "/servers.json"
	if err := c.t.do(ctx, "list_volume_servers", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Servers))
	for _, s := range resp.Servers {
		if s.Name == "" {
			return nil, &DecodeError{Kind: "server", Field: "name", Name: s.DisplayName}
		}
		names = append(names, s.Name)
	}
	return names, nil
}

// DetachVolumeFromAllServers detaches volumeName from every server it is
// attached to and returns those servers.
func (c *VPSAClient) DetachVolumeFromAllServers(ctx context.Context, volumeName string) ([]string, error) {
	servers, err := c.GetServersForVolume(ctx, volumeName)
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return servers, nil
	}

	path := "/api/volumes/" + url.PathEscape(volumeName) + "/detach.json"
	req := DetachRequest{Servers: servers, Force: "YES"}
	if err := c.t.do(ctx, "detach_volume", http.MethodPost, path, req, nil); err != nil {
		return nil, err
	}
	return servers, nil
}

// UpdateExportName renames the export of volumeName and returns the new
// NFS export path.
func (c *VPSAClient) UpdateExportName(ctx context.Context, volumeName, exportName string) (string, error) {
	var resp VolumeResponse
	path := "/api/volumes/" + url.PathEscape(volumeName) + "/export_name.json"
	if err := c.t.do(ctx, "update_export_name", http.MethodPut, path, ExportNameRequest{ExportName: exportName}, &resp); err != nil {
		return "", err
	}
	if resp.Volume == nil {
		return "", &DecodeError{Kind: "volume", Field: "volume", Name: volumeName}
	}
	if err := resp.Volume.validate(); err != nil {
		return "", err
	}
	return resp.Volume.NFSExportPath, nil
}

// AttachVolumeToServers attaches volumeName to servers and returns the
// servers the volume is attached to afterwards.
func (c *VPSAClient) AttachVolumeToServers(ctx context.Context, volumeName string, servers []string) ([]string, error) {
	var resp ServerListResponse
	path := "/api/volumes/" + url.PathEscape(volumeName) + "/attach.json"
	if err := c.t.do(ctx, "attach_volume", http.MethodPost, path, AttachRequest{Servers: servers}, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Servers))
	for _, s := range resp.Servers {
		names = append(names, s.Name)
	}
	return names, nil
}

func (c *VPSAClient) GetSnapshotPoliciesForCG(ctx context.Context, cgName string) ([]Policy, error) {
	var resp PolicyListResponse
	path := "/api/consistency_groups/" + url.PathEscape(cgName) + "/snapshot_policies.json"
	if err := c.t.do(ctx, "list_snapshot_policies", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Policies {
		if err := resp.Policies[i].validate(); err != nil {
			return nil, err
		}
	}
	return resp.Policies, nil
}

func (c *VPSAClient) AttachSnapshotPolicyToCG(ctx context.Context, cgName, policyName string) error {
	path := "/api/consistency_groups/" + url.PathEscape(cgName) + "/attach_snapshot_policy.json"
	return c.t.do(ctx, "attach_snapshot_policy", http.MethodPost, path, AttachPolicyRequest{Policy: policyName}, nil)
}

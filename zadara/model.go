package zadara

import "fmt"

// VPSA states as reported by the cloud console.
const (
	VPSAStatusCreated    = "created"
	VPSAStatusHibernated = "hibernated"
)

type VPSA struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type Volume struct {
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	CGName        string `json:"cg_name"`
	NFSExportPath string `json:"nfs_export_path"`
	Status        string `json:"status,omitempty"`
}

func (v *Volume) validate() error {
	switch {
	case v.Name == "":
		return &DecodeError{Kind: "volume", Field: "name"}
	case v.CGName == "":
		return &DecodeError{Kind: "volume", Field: "cg_name", Name: v.Name}
	case v.NFSExportPath == "":
		return &DecodeError{Kind: "volume", Field: "nfs_export_path", Name: v.Name}
	}
	return nil
}

type Snapshot struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ModifiedAt  string `json:"modified_at"`
	CGName      string `json:"cg_name,omitempty"`
}

func (s *Snapshot) validate() error {
	if s.Name == "" {
		return &DecodeError{Kind: "snapshot", Field: "name", Name: s.DisplayName}
	}
	return nil
}

type Policy struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

func (p *Policy) validate() error {
	if p.Name == "" {
		return &DecodeError{Kind: "snapshot policy", Field: "name", Name: p.DisplayName}
	}
	return nil
}

type Server struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// request models

type CloneRequest struct {
	Name     string `json:"name"`
	Snapshot string `json:"snapshot"`
}

type DetachRequest struct {
	Servers []string `json:"servers"`
	Force   string   `json:"force,omitempty"`
}

type AttachRequest struct {
	Servers []string `json:"servers"`
}

type ExportNameRequest struct {
	ExportName string `json:"export_name"`
}

type AttachPolicyRequest struct {
	Policy string `json:"policy"`
}

// response payloads, found under the "response" key of VPSA replies

type VPSAListResponse struct {
	VPSAs []VPSA `json:"vpsas"`
}

type VolumeListResponse struct {
	Volumes []Volume `json:"volumes"`
}

type VolumeResponse struct {
	Volume *Volume `json:"volume,omitempty"`
}

type SnapshotListResponse struct {
	Snapshots []Snapshot `json:"snapshots"`
}

type ServerListResponse struct {
	Servers []Server `json:"servers"`
}

type PolicyListResponse struct {
	Policies []Policy `json:"snapshot_policies"`
}

// Envelope wraps every VPSA reply. Status 0 is success.
type Envelope struct {
	Response EnvelopeBody `json:"response"`
}

type EnvelopeBody struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// DecodeError reports a remote record missing a field the workflow needs.
type DecodeError struct {
	Kind  string
	Field string
	Name  string
}

func (e *DecodeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("decode %s %q: missing %s", e.Kind, e.Name, e.Field)
	}
	return fmt.Sprintf("decode %s: missing %s", e.Kind, e.Field)
}

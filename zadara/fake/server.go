// Package fake serves an in-memory Zadara cloud console and VPSA API for
// tests. It implements the subset of endpoints used by package zadara.
package fake

import (
	"fmt"
	"net/http/httptest"
	"path"
	"slices"
	"sync"

	"github.com/erikmagkekse/zadara-clone-swap/zadara"

	"github.com/labstack/echo/v5"
)

// VPSA is the state of one fake VPSA. Fill it in before calling New.
type VPSA struct {
	zadara.VPSA
	Token     string
	Volumes   []*zadara.Volume
	Servers   map[string][]string          // volume name -> attached servers
	Snapshots map[string][]zadara.Snapshot // cg name -> snapshots
	Policies  map[string][]zadara.Policy   // cg name -> attached policies

	// CloneSync returns the clone from the clone call. Otherwise the clone
	// shows up in the volume list after CloneReadyAfter list calls; a
	// negative value means never.
	CloneSync       bool
	CloneReadyAfter int

	pending []*pendingClone
	nextID  int
}

type pendingClone struct {
	vol       *zadara.Volume
	remaining int
}

type Server struct {
	*httptest.Server

	mu           sync.Mutex
	consoleToken string
	vpsas        map[int]*VPSA
	order        []int
	failures     map[string]int
	calls        []string
}

// New starts a fake console accepting consoleToken, hosting vpsas.
func New(consoleToken string, vpsas ...*VPSA) *Server {
	s := &Server{
		consoleToken: consoleToken,
		vpsas:        make(map[int]*VPSA, len(vpsas)),
		failures:     make(map[string]int),
	}
	for _, v := range vpsas {
		if v.Servers == nil {
			v.Servers = make(map[string][]string)
		}
		if v.Snapshots == nil {
			v.Snapshots = make(map[string][]zadara.Snapshot)
		}
		if v.Policies == nil {
			v.Policies = make(map[string][]zadara.Policy)
		}
		s.vpsas[v.ID] = v
		s.order = append(s.order, v.ID)
	}

	e := echo.New()
	h := &handler{srv: s}

	e.GET("/api/vpsas.json", h.listVPSAs, s.consoleAuth())

	api := e.Group("/api/vpsas/:id", s.vpsaAuth())
	api.GET("/api/volumes.json", s.op("list_volumes", h.listVolumes))
	api.GET("/api/volumes/:name/servers.json", s.op("list_volume_servers", h.listServers))
	api.POST("/api/volumes/:name/detach.json", s.op("detach_volume", h.detach))
	api.POST("/api/volumes/:name/attach.json", s.op("attach_volume", h.attach))
	api.PUT("/api/volumes/:name/export_name.json", s.op("update_export_name", h.updateExportName))
	api.GET("/api/consistency_groups/:cg/snapshots.json", s.op("list_snapshots", h.listSnapshots))
	api.POST("/api/consistency_groups/:cg/clone.json", s.op("clone_volume", h.clone))
	api.GET("/api/consistency_groups/:cg/snapshot_policies.json", s.op("list_snapshot_policies", h.listPolicies))
	api.POST("/api/consistency_groups/:cg/attach_snapshot_policy.json", s.op("attach_snapshot_policy", h.attachPolicy))

	s.Server = httptest.NewServer(e)
	return s
}

// Fail makes every later request to operation answer with status.
// Operation names match the zadara client's metric labels.
func (s *Server) Fail(operation string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[operation] = status
}

// Calls returns the mutating calls seen so far, in order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

func (s *Server) Volume(vpsaID int, name string) *zadara.Volume {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.vpsas[vpsaID]
	if v == nil {
		return nil
	}
	if vol := v.volume(name); vol != nil {
		cp := *vol
		return &cp
	}
	return nil
}

func (s *Server) VolumeByDisplayName(vpsaID int, displayName string) *zadara.Volume {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.vpsas[vpsaID]
	if v == nil {
		return nil
	}
	for _, vol := range v.Volumes {
		if vol.DisplayName == displayName {
			cp := *vol
			return &cp
		}
	}
	return nil
}

func (s *Server) AttachedServers(vpsaID int, volume string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.vpsas[vpsaID].Servers[volume])
}

func (s *Server) PolicyNames(vpsaID int, cg string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, p := range s.vpsas[vpsaID].Policies[cg] {
		names = append(names, p.Name)
	}
	return names
}

func (s *Server) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (v *VPSA) volume(name string) *zadara.Volume {
	for _, vol := range v.Volumes {
		if vol.Name == name {
			return vol
		}
	}
	return nil
}

func (v *VPSA) newClone(source *zadara.Volume, displayName string) *zadara.Volume {
	v.nextID++
	return &zadara.Volume{
		Name:          fmt.Sprintf("volume-clone-%05d", v.nextID),
		DisplayName:   displayName,
		CGName:        fmt.Sprintf("cg-clone-%05d", v.nextID),
		NFSExportPath: path.Dir(source.NFSExportPath) + "/" + displayName,
		Status:        "Available",
	}
}

// tick advances pending clones by one volume listing.
func (v *VPSA) tick() {
	var still []*pendingClone
	for _, p := range v.pending {
		if p.remaining == 0 {
			v.Volumes = append(v.Volumes, p.vol)
			continue
		}
		if p.remaining > 0 {
			p.remaining--
		}
		still = append(still, p)
	}
	v.pending = still
}

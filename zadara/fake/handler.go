package fake

import (
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/erikmagkekse/zadara-clone-swap/zadara"

	"github.com/labstack/echo/v5"
)

type handler struct {
	srv *Server
}

// ok wraps payload fields into a successful VPSA envelope.
func ok(c *echo.Context, fields map[string]any) error {
	body := map[string]any{"status": 0}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(http.StatusOK, map[string]any{"response": body})
}

func fail(c *echo.Context, status int, msg string) error {
	return c.JSON(status, zadara.Envelope{Response: zadara.EnvelopeBody{Status: 1, Message: msg}})
}

func vpsaFrom(c *echo.Context) *VPSA {
	return c.Get("vpsa").(*VPSA)
}

func serverList(names []string) []zadara.Server {
	out := make([]zadara.Server, 0, len(names))
	for _, n := range names {
		out = append(out, zadara.Server{Name: n})
	}
	return out
}

// --- Console ---

func (h *handler) listVPSAs(c *echo.Context) error {
	h.srv.mu.Lock()
	defer h.srv.mu.Unlock()

	vpsas := make([]zadara.VPSA, 0, len(h.srv.order))
	for _, id := range h.srv.order {
		vpsas = append(vpsas, h.srv.vpsas[id].VPSA)
	}
	return c.JSON(http.StatusOK, zadara.VPSAListResponse{VPSAs: vpsas})
}

// --- Volumes ---

func (h *handler) listVolumes(c *echo.Context) error {
	h.srv.mu.Lock()
	defer h.srv.mu.Unlock()

	v := vpsaFrom(c)
	v.tick()
	vols := make([]zadara.Volume, 0, len(v.Volumes))
	for _, vol := range v.Volumes {
		vols = append(vols, *vol)
	}
	return ok(c, map[string]any{"volumes": vols})
}

func (h *handler) listServers(c *echo.Context) error {
	h.srv.mu.Lock()
	defer h.srv.mu.Unlock()

	v := vpsaFrom(c)
	name := c.Param("name")
	if v.volume(name) == nil {
		return fail(c, http.StatusNotFound, "volume "+name+" not found")
	}
	return ok(c, map[string]any{"servers": serverList(v.Servers[name])})
}

func (h *handler) detach(c *echo.Context) error {
	var req zadara.DetachRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	h.srv.mu.Lock()
	defer h.srv.mu.Unlock()

	v := vpsaFrom(c)
	name := c.Param("name")
	if v.volume(name) == nil {
		return fail(c, http.StatusNotFound, "volume "+name+" not found")
	}
	v.Servers[name] = slices.DeleteFunc(v.Servers[name], func(s string) bool {
		return slices.Contains(req.Servers, s)
	})
	h.srv.record("detach %s %s", name, strings.Join(req.Servers, ","))
	return ok(c, nil)
}

func (h *handler) attach(c *echo.Context) error {
	var req zadara.AttachRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	h.srv.mu.Lock()
	defer h.srv.mu.Unlock()

	v := vpsaFrom(c)
	name := c.Param("name")
	if v.volume(name) == nil {
		return fail(c, http.StatusNotFound, "volume "+name+" not found")
	}
	for _, s := range req.Servers {
		if !slices.Contains(v.Servers[name], s) {
			v.Servers[name] = append(v.Servers[name], s)
		}
	}
	h.srv.record("attach %s %s", name, strings.Join(req.Servers, ","))
	return ok(c, map[string]any{"servers": serverList(v.Servers[name])})
}

func (h *handler) updateExportName(c *echo.Context) error {
	var req zadara.ExportNameRequest
	if err := c.Bind(&req); err != nil || req.ExportName == "" {
		return fail(c, http.StatusBadRequest, "export_name is required")
	}

	h.srv.mu.Lock()
	defer h.srv.mu.Unlock()

	v := vpsaFrom(c)
	name := c.Param("name")
	vol := v.volume(name)
	if vol == nil {
		return fail(c, http.StatusNotFound, "volume "+name+" not found")
	}

	newPath := path.Dir(vol.NFSExportPath) + "/" + req.ExportName
	for _, other := range v.Volumes {
		if other != vol && other.NFSExportPath == newPath {
			return fail(c, http.StatusConflict, "export path "+newPath+" already in use")
		}
	}
	vol.NFSExportPath = newPath
	h.srv.record("rename %s %s", name, req.ExportName)
	return ok(c, map[string]any{"volume": *vol})
}

// --- Consistency groups ---

func (h *handler) listSnapshots(c *echo.Context) error {
	h.srv.mu.Lock()
	defer h.srv.mu.Unlock()

	v := vpsaFrom(c)
	snaps := v.Snapshots[c.Param("cg")]
	if snaps == nil {
		snaps = []zadara.Snapshot{}
	}
	return ok(c, map[string]any{"snapshots": snaps})
}

func (h *handler) clone(c *echo.Context) error {
	var req zadara.CloneRequest
	if err := c.Bind(&req); err != nil || req.Name == "" || req.Snapshot == "" {
		return fail(c, http.StatusBadRequest, "name and snapshot are required")
	}

	h.srv.mu.Lock()
	defer h.srv.mu.Unlock()

	v := vpsaFrom(c)
	cg := c.Param("cg")

	var source *zadara.Volume
	for _, vol := range v.Volumes {
		if vol.CGName == cg {
			source = vol
			break
		}
	}
	if source == nil {
		return fail(c, http.StatusNotFound, "consistency group "+cg+" not found")
	}
	if !slices.ContainsFunc(v.Snapshots[cg], func(s zadara.Snapshot) bool { return s.Name == req.Snapshot }) {
		return fail(c, http.StatusNotFound, "snapshot "+req.Snapshot+" not found")
	}

	clone := v.newClone(source, req.Name)
	h.srv.record("clone %s %s %s", cg, req.Snapshot, req.Name)

	if v.CloneSync {
		v.Volumes = append(v.Volumes, clone)
		return ok(c, map[string]any{"volume": *clone})
	}
	v.pending = append(v.pending, &pendingClone{vol: clone, remaining: v.CloneReadyAfter})
	return ok(c, nil)
}

func (h *handler) listPolicies(c *echo.Context) error {
	h.srv.mu.Lock()
	defer h.srv.mu.Unlock()

	v := vpsaFrom(c)
	policies := v.Policies[c.Param("cg")]
	if policies == nil {
		policies = []zadara.Policy{}
	}
	return ok(c, map[string]any{"snapshot_policies": policies})
}

func (h *handler) attachPolicy(c *echo.Context) error {
	var req zadara.AttachPolicyRequest
	if err := c.Bind(&req); err != nil || req.Policy == "" {
		return fail(c, http.StatusBadRequest, "policy is required")
	}

	h.srv.mu.Lock()
	defer h.srv.mu.Unlock()

	v := vpsaFrom(c)
	cg := c.Param("cg")
	if !slices.ContainsFunc(v.Policies[cg], func(p zadara.Policy) bool { return p.Name == req.Policy }) {
		v.Policies[cg] = append(v.Policies[cg], zadara.Policy{Name: req.Policy})
	}
	h.srv.record("attach_policy %s %s", cg, req.Policy)
	return ok(c, nil)
}

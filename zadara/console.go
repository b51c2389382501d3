package zadara

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ErrVPSANotFound is returned when no running VPSA hosts the export path.
var ErrVPSANotFound = errors.New("vpsa not found")

// ConsoleClient talks to the Zadara cloud console, which knows every VPSA
// of the account and proxies VPSA API calls.
type ConsoleClient struct {
	url string
	t   *transport
}

func NewConsoleClient(url, token string) *ConsoleClient {
	return &ConsoleClient{
		url: url,
		t:   newTransport(url, headerAuthorization, token, false),
	}
}

func (c *ConsoleClient) URL() string {
	return c.url
}

func (c *ConsoleClient) ListVPSAs(ctx context.Context) ([]VPSA, error) {
	var resp VPSAListResponse
	if err := c.t.do(ctx, "list_vpsas", http.MethodGet, "/api/vpsas.json", nil, &resp); err != nil {
		return nil, err
	}
	return resp.VPSAs, nil
}

// VPSAByExportPath probes every created VPSA with vpsaToken and returns
// the first one holding a volume with exportPath. Hibernated VPSAs cannot
// answer and are skipped.
func (c *ConsoleClient) VPSAByExportPath(ctx context.Context, exportPath, vpsaToken string) (*VPSA, error) {
	vpsas, err := c.ListVPSAs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vpsas: %w", err)
	}

	for i := range vpsas {
		v := &vpsas[i]
		if v.Status != VPSAStatusCreated {
			log.Debug().Int("vpsa", v.ID).Str("status", v.Status).Msg("skipping vpsa")
			continue
		}

		vol, err := NewVPSAClient(c, vpsaToken, v.ID).GetVolumeByExportPath(ctx, exportPath)
		if err != nil {
			// the token is scoped to one VPSA, the others reject it
			if IsUnauthorized(err) || IsNotFound(err) {
				log.Debug().Err(err).Int("vpsa", v.ID).Msg("vpsa not accessible")
				continue
			}
			return nil, fmt.Errorf("probe vpsa %d: %w", v.ID, err)
		}
		if vol != nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: no vpsa with export_path %q, maybe it is hibernated?", ErrVPSANotFound, exportPath)
}

func (c *ConsoleClient) vpsaURL(id int) string {
	return c.url + "/api/vpsas/" + strconv.Itoa(id)
}

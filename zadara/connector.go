package zadara

import (
	"context"
	"fmt"

	"github.com/erikmagkekse/zadara-clone-swap/credentials"

	"github.com/rs/zerolog/log"
)

// TokenSource resolves an access token for a scope.
type TokenSource interface {
	Resolve(ctx context.Context, scope credentials.Scope) (string, error)
}

// Connector builds a VPSA client for the VPSA that hosts an export path.
type Connector struct {
	ConsoleURL string
	Tokens     TokenSource
}

func (c *Connector) Connect(ctx context.Context, exportPath string) (*VPSAClient, error) {
	consoleToken, err := c.Tokens.Resolve(ctx, credentials.ScopeConsole)
	if err != nil {
		return nil, err
	}
	console := NewConsoleClient(c.ConsoleURL, consoleToken)
	log.Debug().Str("url", c.ConsoleURL).Msg("console client ready")

	vpsaToken, err := c.Tokens.Resolve(ctx, credentials.ScopeVPSA)
	if err != nil {
		return nil, err
	}

	vpsa, err := console.VPSAByExportPath(ctx, exportPath, vpsaToken)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("export_path", exportPath).Int("vpsa", vpsa.ID).Str("name", vpsa.Name).Msg("found vpsa with export path")

	if vpsa.ID <= 0 {
		return nil, fmt.Errorf("vpsa %q has invalid id %d", vpsa.Name, vpsa.ID)
	}
	return NewVPSAClient(console, vpsaToken, vpsa.ID), nil
}

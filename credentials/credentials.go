package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

type Scope string

const (
	ScopeConsole Scope = "console"
	ScopeVPSA    Scope = "vpsa"
)

const (
	EnvConsoleToken = "ZADARA_CONSOLE_ACCESS_TOKEN"
	EnvVPSAToken    = "ZADARA_VPSA_ACCESS_TOKEN"
)

var prompts = map[Scope]string{
	ScopeConsole: "enter your zadara CONSOLE access token: ",
	ScopeVPSA:    "enter your zadara VPSA token: ",
}

// Tokens holds access tokens taken from the environment. Empty means unset.
type Tokens struct {
	Console string `env:"ZADARA_CONSOLE_ACCESS_TOKEN"`
	VPSA    string `env:"ZADARA_VPSA_ACCESS_TOKEN"`
}

// FromEnv parses tokens from environ. A nil environ reads the process environment.
func FromEnv(environ map[string]string) (Tokens, error) {
	if environ == nil {
		return env.ParseAs[Tokens]()
	}
	return env.ParseAsWithOptions[Tokens](env.Options{Environment: environ})
}

// Prompter reads one line of operator input after showing prompt.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// Resolver hands out tokens per scope. Each scope is resolved once: from
// the parsed environment when set, else by prompting until the operator
// enters something non-empty. Results are cached in the resolver.
type Resolver struct {
	prompter Prompter
	cache    map[Scope]string
}

func NewResolver(tokens Tokens, p Prompter) *Resolver {
	cache := make(map[Scope]string, 2)
	if tokens.Console != "" {
		cache[ScopeConsole] = tokens.Console
	}
	if tokens.VPSA != "" {
		cache[ScopeVPSA] = tokens.VPSA
	}
	return &Resolver{prompter: p, cache: cache}
}

func (r *Resolver) Resolve(ctx context.Context, scope Scope) (string, error) {
	if v, ok := r.cache[scope]; ok {
		return v, nil
	}
	prompt, ok := prompts[scope]
	if !ok {
		return "", fmt.Errorf("unknown credential scope %q", scope)
	}
	if r.prompter == nil {
		return "", fmt.Errorf("%s token not set and no prompt available", scope)
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		v, err := r.prompter.Prompt(prompt)
		if err != nil {
			return "", fmt.Errorf("read %s token: %w", scope, err)
		}
		if v != "" {
			log.Debug().Str("scope", string(scope)).Msg("token entered interactively")
			r.cache[scope] = v
			return v, nil
		}
	}
}

// Cached reports whether scope already has a token.
func (r *Resolver) Cached(scope Scope) bool {
	_, ok := r.cache[scope]
	return ok
}

// TerminalPrompter prompts on out and reads lines from in. With Hidden set
// and in being a terminal, input is not echoed. Use Visible for answers
// that are not secret.
type TerminalPrompter struct {
	In     *os.File
	Out    io.Writer
	Hidden bool

	reader *bufio.Reader
}

func NewTerminalPrompter(hidden bool) *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr, Hidden: hidden}
}

func (p *TerminalPrompter) Prompt(prompt string) (string, error) {
	return p.prompt(prompt, p.Hidden)
}

// Visible returns a Prompter that always echoes input. It shares the
// reader of p, so input buffered by one is seen by the other.
func (p *TerminalPrompter) Visible() Prompter {
	return visiblePrompter{p}
}

type visiblePrompter struct{ p *TerminalPrompter }

func (v visiblePrompter) Prompt(prompt string) (string, error) {
	return v.p.prompt(prompt, false)
}

func (p *TerminalPrompter) prompt(prompt string, hidden bool) (string, error) {
	_, _ = fmt.Fprint(p.Out, prompt)

	fd := int(p.In.Fd())
	if hidden && term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(p.Out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	return ReadLine(p.reader)
}

// ReadLine returns the next line without its trailing newline. A final
// line without newline is returned as is; io.EOF is only returned when
// nothing was read.
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

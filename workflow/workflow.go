package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/erikmagkekse/zadara-clone-swap/utils"
	"github.com/erikmagkekse/zadara-clone-swap/zadara"

	"github.com/rs/zerolog/log"
)

type Options struct {
	ExportPath    string
	CloneChecks   int
	CloneInterval time.Duration
	// JournalPath, when set, gets a section appended for every run.
	JournalPath string
}

type Result struct {
	Source   *zadara.Volume
	Snapshot zadara.Snapshot
	Clone    *zadara.Volume
	Swap     *SwapResult
	Policies []zadara.Policy
}

// Workflow clones the volume at an export path from an operator-chosen
// snapshot and moves the export over to the clone.
type Workflow struct {
	opts    Options
	connect ConnectFunc
	ui      UI
	clock   utils.Clock

	svc     VolumeService
	journal *Journal
}

func New(opts Options, connect ConnectFunc, ui UI, clock utils.Clock) *Workflow {
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &Workflow{opts: opts, connect: connect, ui: ui, clock: clock}
}

// Journal returns the mutations recorded by the last Run.
func (w *Workflow) Journal() *Journal {
	return w.journal
}

func (w *Workflow) Run(ctx context.Context) (*Result, error) {
	w.journal = NewJournal(w.clock, w.opts.ExportPath)
	res := &Result{}

	err := w.run(ctx, res)
	if err != nil && w.journal.Mutated() {
		log.Error().Msg("run failed after changing remote state, manual remediation required:")
		for _, e := range w.journal.Entries {
			log.Error().Str("action", e.Action).Msg(e.Detail)
		}
	}
	if w.opts.JournalPath != "" {
		if jerr := w.journal.Append(w.opts.JournalPath, err); jerr != nil {
			log.Warn().Err(jerr).Str("path", w.opts.JournalPath).Msg("failed to write journal")
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (w *Workflow) run(ctx context.Context, res *Result) error {
	var err error

	log.Info().Msg("STEP 2. setting up zadara client...")
	if err := w.step(StepSetupClient, func() error { return w.setupClient(ctx) }); err != nil {
		return err
	}

	log.Info().Msgf("STEP 3. finding volume to be cloned by export_path (%s)", w.opts.ExportPath)
	if err := w.step(StepLocateVolume, func() error {
		res.Source, err = w.locateVolume(ctx)
		return err
	}); err != nil {
		return err
	}

	log.Info().Msgf("STEP 4. volume found (%s); printing snapshots available", res.Source.DisplayName)
	var menu *SnapshotMenu
	if err := w.step(StepListSnapshots, func() error {
		menu, err = ListSnapshots(ctx, w.svc, res.Source)
		return err
	}); err != nil {
		return err
	}
	menu.Print(w.ui)

	if err := w.step(StepSelectSnapshot, func() error {
		res.Snapshot, err = menu.Select(w.ui)
		return err
	}); err != nil {
		return err
	}
	w.journal.Snapshot = res.Snapshot.Name

	log.Info().Msgf("STEP 5. snapshot picked (%s), cloning...", res.Snapshot.DisplayName)
	cloner := NewCloner(w.svc, w.clock, w.opts.CloneChecks, w.opts.CloneInterval)
	if err := w.step(StepClone, func() error {
		res.Clone, err = cloner.Clone(ctx, res.Source, res.Snapshot.Name, w.journal)
		return err
	}); err != nil {
		return err
	}

	log.Info().Msgf("STEP 6. cloned as volume (%s); changing export_paths...", res.Clone.DisplayName)
	if err := w.step(StepSwapExports, func() error {
		res.Swap, err = NewSwapper(w.svc, w.clock).Swap(ctx, res.Source, res.Clone, w.journal)
		return err
	}); err != nil {
		return err
	}

	log.Info().Msg("STEP 7. attaching snapshot policies...")
	if err := w.step(StepCopyPolicies, func() error {
		res.Policies, err = CopyPolicies(ctx, w.svc, res.Source, res.Clone, w.journal)
		return err
	}); err != nil {
		return err
	}

	stepsTotal.WithLabelValues(StepDone.String(), "success").Inc()
	log.Info().
		Str("source_export_path", res.Swap.SourceExportPath).
		Str("clone_export_path", res.Swap.CloneExportPath).
		Msg("STEP 8. remount shared storage in clients and we are done.")
	return nil
}

// ListOnly sets up the client, locates the volume and prints its snapshot
// menu without changing anything.
func (w *Workflow) ListOnly(ctx context.Context) (*SnapshotMenu, error) {
	var (
		vol  *zadara.Volume
		menu *SnapshotMenu
		err  error
	)
	if err := w.step(StepSetupClient, func() error { return w.setupClient(ctx) }); err != nil {
		return nil, err
	}
	if err := w.step(StepLocateVolume, func() error {
		vol, err = w.locateVolume(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	if err := w.step(StepListSnapshots, func() error {
		menu, err = ListSnapshots(ctx, w.svc, vol)
		return err
	}); err != nil {
		return nil, err
	}
	menu.Print(w.ui)
	return menu, nil
}

// step runs fn as workflow step s, records metrics and wraps its error.
func (w *Workflow) step(s Step, fn func() error) error {
	start := time.Now()
	err := fn()
	stepDuration.WithLabelValues(s.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		stepsTotal.WithLabelValues(s.String(), "error").Inc()
		return &StepError{Step: s, Mutated: w.journal.Mutated(), Err: err}
	}
	stepsTotal.WithLabelValues(s.String(), "success").Inc()
	return nil
}

func (w *Workflow) setupClient(ctx context.Context) error {
	svc, err := w.connect(ctx, w.opts.ExportPath)
	if err != nil {
		return err
	}
	w.svc = svc
	return nil
}

func (w *Workflow) locateVolume(ctx context.Context) (*zadara.Volume, error) {
	vol, err := w.svc.GetVolumeByExportPath(ctx, w.opts.ExportPath)
	if err != nil {
		return nil, fmt.Errorf("find volume by export_path %s: %w", w.opts.ExportPath, err)
	}
	if vol == nil {
		return nil, fmt.Errorf("%w: export_path %s", ErrVolumeNotFound, w.opts.ExportPath)
	}
	return vol, nil
}

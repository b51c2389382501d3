package workflow

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/erikmagkekse/zadara-clone-swap/utils"
)

// Journal records the remote mutations of one run. A nil *Journal
// records nothing.
type Journal struct {
	clock      utils.Clock
	Started    time.Time
	ExportPath string
	Snapshot   string
	Entries    []JournalEntry
}

type JournalEntry struct {
	At     time.Time
	Action string
	Detail string
}

func NewJournal(clock utils.Clock, exportPath string) *Journal {
	return &Journal{clock: clock, Started: clock.Now(), ExportPath: exportPath}
}

func (j *Journal) Record(action, format string, args ...any) {
	if j == nil {
		return
	}
	j.Entries = append(j.Entries, JournalEntry{
		At:     j.clock.Now(),
		Action: action,
		Detail: fmt.Sprintf(format, args...),
	})
}

// Mutated reports whether any remote state was changed.
func (j *Journal) Mutated() bool {
	return j != nil && len(j.Entries) > 0
}

// Append writes a human-readable section for this run to path. runErr is
// the outcome of the run, nil on success.
func (j *Journal) Append(path string, runErr error) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err == nil && info.Size() == 0 {
		header := "# zadara-clone-swap journal - one section per run, newest at the bottom.\n\n"
		if _, err := f.WriteString(header); err != nil {
			return err
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== RUN %s ===\n", j.Started.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "export_path: %s\n", j.ExportPath)
	if j.Snapshot != "" {
		fmt.Fprintf(&b, "snapshot: %s\n", j.Snapshot)
	}
	fmt.Fprintf(&b, "mutations:\n")
	if len(j.Entries) == 0 {
		fmt.Fprintf(&b, "- none\n")
	}
	for _, e := range j.Entries {
		fmt.Fprintf(&b, "- %s %s: %s\n", e.At.UTC().Format(time.RFC3339), e.Action, e.Detail)
	}
	if runErr == nil {
		fmt.Fprintf(&b, "result: SUCCESS\n\n")
	} else {
		fmt.Fprintf(&b, "result: FAILED: %v\n\n", runErr)
	}

	_, err = f.WriteString(b.String())
	return err
}

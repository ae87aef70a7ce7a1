package gpio

import (
	"fmt"

	"github.com/gpiobridge/gpiobridge/internal/infrastructure/config"
)

// entry is one acquired output line. Each entry owns its chip handle and its
// line for the lifetime of the table, mirroring the bindings file one to one.
type entry struct {
	binding config.GPIOBinding
	chip    Chip
	line    Line
}

// Table maps link identifiers to acquired hardware output lines. It is built
// once at startup and read-only afterwards.
type Table struct {
	entries []entry
	logger  Logger
}

// Open acquires every configured output line.
//
// Any chip or line that cannot be acquired fails the whole initialisation;
// lines acquired up to that point are released again. The daemon must not
// accept messages in a partially-initialised state.
func Open(bindings []config.GPIOBinding, provider Provider, logger Logger) (*Table, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	t := &Table{logger: logger}
	for _, b := range bindings {
		chip, err := provider.OpenChip(b.Chip)
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("opening gpio chip %s for link %s: %w", b.Chip, b.Link, err)
		}

		line, err := chip.RequestOutputLine(b.Pin)
		if err != nil {
			_ = chip.Close()
			t.Close()
			return nil, fmt.Errorf("requesting pin %d on chip %s for link %s: %w", b.Pin, b.Chip, b.Link, err)
		}

		t.entries = append(t.entries, entry{binding: b, chip: chip, line: line})
		logger.Debug("gpio line acquired", "link", b.Link, "chip", b.Chip, "pin", b.Pin)
	}
	return t, nil
}

// Set writes value to every line whose link identifier joins with link.
//
// A failed write is logged and the remaining matches are still driven; a
// hardware fault must not stall the event loop.
func (t *Table) Set(link string, value bool) {
	v := 0
	if value {
		v = 1
	}

	for _, e := range t.entries {
		if !config.LinkMatch(link, e.binding.Link) {
			continue
		}
		if err := e.line.SetValue(v); err != nil {
			t.logger.Error("gpio write failed",
				"link", e.binding.Link,
				"chip", e.binding.Chip,
				"pin", e.binding.Pin,
				"value", v,
				"error", err,
			)
			continue
		}
		t.logger.Debug("gpio line set",
			"link", e.binding.Link,
			"chip", e.binding.Chip,
			"pin", e.binding.Pin,
			"value", v,
		)
	}
}

// Len returns the number of acquired lines.
func (t *Table) Len() int {
	return len(t.entries)
}

// Close releases every line and closes every chip in reverse acquisition
// order. Safe to call on a partially-built table.
func (t *Table) Close() {
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if err := e.line.Close(); err != nil {
			t.logger.Warn("releasing gpio line",
				"link", e.binding.Link,
				"pin", e.binding.Pin,
				"error", err,
			)
		}
		if err := e.chip.Close(); err != nil {
			t.logger.Warn("closing gpio chip",
				"chip", e.binding.Chip,
				"error", err,
			)
		}
	}
	t.entries = nil
}

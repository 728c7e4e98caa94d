// Package gpio pulses the receiver's active-low reset line.
package gpio

import (
	"context"
	"fmt"
	"time"

	"gnssrx/internal/config"
)

// Line is an output line.
type Line interface {
	SetValue(v int) error
	Close() error
}

// Opener requests chip/offset as an output driven high (reset released).
type Opener func(chip string, offset int) (Line, error)

// Reset holds the line low for cfg.Pulse then releases it.
func Reset(ctx context.Context, cfg config.ResetConfig) error {
	return pulse(ctx, openLine, cfg)
}

func pulse(ctx context.Context, open Opener, cfg config.ResetConfig) error {
	if cfg.Line < 0 {
		return fmt.Errorf("gpio: invalid line %d", cfg.Line)
	}
	line, err := open(cfg.Chip, cfg.Line)
	if err != nil {
		return fmt.Errorf("gpio: request %s line %d: %w", cfg.Chip, cfg.Line, err)
	}
	defer line.Close()

	if err := line.SetValue(0); err != nil {
		return fmt.Errorf("gpio: assert reset: %w", err)
	}
	t := time.NewTimer(cfg.Pulse)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	// Always release, even when cancelled, so the receiver is not left held.
	if err := line.SetValue(1); err != nil {
		return fmt.Errorf("gpio: release reset: %w", err)
	}
	return ctx.Err()
}

// Package transport opens the receiver byte source: a serial port or a raw
// TCP stream.
package transport

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gnssrx/internal/config"
)

// Open returns the configured live source and a short description of it.
// Replay sources are handled by package replay.
func Open(ctx context.Context, cfg config.SourceConfig) (io.ReadWriteCloser, string, error) {
	switch cfg.Kind {
	case config.SourceSerial:
		device := strings.TrimSpace(cfg.Device)
		if device == "" {
			device = AutoDetectDevice()
			if device == "" {
				return nil, "", fmt.Errorf("serial auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
			}
		}
		rw, err := OpenSerial(device, cfg.Baud)
		if err != nil {
			return nil, "", fmt.Errorf("serial open device=%s baud=%d: %w", device, cfg.Baud, err)
		}
		return rw, device, nil
	case config.SourceTCP:
		return DialTCP(ctx, cfg.Addr), "tcp://" + cfg.Addr, nil
	}
	return nil, "", fmt.Errorf("transport: unsupported source kind %q", cfg.Kind)
}

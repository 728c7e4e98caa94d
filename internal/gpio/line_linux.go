//go:build linux

package gpio

import (
	"github.com/warthog618/go-gpiocdev"
)

func openLine(chipName string, offset int) (Line, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("gnssrx-reset"))
	if err != nil {
		return nil, err
	}
	line, err := chip.RequestLine(offset, gpiocdev.AsOutput(1))
	if err != nil {
		_ = chip.Close()
		return nil, err
	}
	return &cdevLine{chip: chip, line: line}, nil
}

type cdevLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (l *cdevLine) SetValue(v int) error { return l.line.SetValue(v) }

func (l *cdevLine) Close() error {
	err := l.line.Close()
	_ = l.chip.Close()
	return err
}

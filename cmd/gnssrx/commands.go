package main

import (
	"fmt"

	"gnssrx/internal/config"
	"gnssrx/internal/ubx"
)

type command struct {
	name  string
	frame []byte
}

// startupCommands frames the configured UBX message rates followed by the
// survey-in time mode.
func startupCommands(cfg config.ReceiverConfig) ([]command, error) {
	var out []command
	for _, r := range cfg.MessageRates {
		key := uint16(r.Class)<<8 | uint16(r.ID)
		frame, err := ubx.EncodeFrame(ubx.SetRate(key, r.Rate))
		if err != nil {
			return nil, fmt.Errorf("message rate %s: %w", ubx.KeyString(key), err)
		}
		out = append(out, command{name: fmt.Sprintf("CFG-MSG %s rate=%d", ubx.KeyString(key), r.Rate), frame: frame})
	}
	if cfg.SurveyIn.Enable {
		m, err := ubx.NewSurveyIn(cfg.SurveyIn.MinDuration, cfg.SurveyIn.AccuracyLimitM)
		if err != nil {
			return nil, fmt.Errorf("survey-in: %w", err)
		}
		frame, err := ubx.EncodeFrame(m)
		if err != nil {
			return nil, fmt.Errorf("survey-in: %w", err)
		}
		out = append(out, command{
			name:  fmt.Sprintf("CFG-TMODE3 survey-in min=%s acc=%.3fm", cfg.SurveyIn.MinDuration, cfg.SurveyIn.AccuracyLimitM),
			frame: frame,
		})
	}
	return out, nil
}

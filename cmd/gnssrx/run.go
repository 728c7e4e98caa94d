package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gnssrx/internal/config"
	"gnssrx/internal/gnss"
	"gnssrx/internal/gpio"
	"gnssrx/internal/metrics"
	"gnssrx/internal/mux"
	"gnssrx/internal/replay"
	"gnssrx/internal/status"
	"gnssrx/internal/transport"
	"gnssrx/internal/udp"
	"gnssrx/internal/web"
)

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger, logs *web.LogBuffer) error {
	store := status.NewStore(status.StoreConfig{})
	hub := web.NewHub(nil)
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	met := metrics.New(reg)

	sinks := mux.Tee{store, met, hub, logSink{logger: logger}}

	if cfg.Forward.Enable {
		protos, err := parseProtocols(cfg.Forward.Protocols)
		if err != nil {
			return err
		}
		fwd, err := udp.NewForwarder(cfg.Forward.Dest, protos)
		if err != nil {
			return fmt.Errorf("udp forwarder init failed: %w", err)
		}
		defer fwd.Close()
		fwd.OnError = func(err error) { logger.Warn().Err(err).Msg("forward failed") }
		sinks = append(sinks, fwd)
		logger.Info().Str("dest", cfg.Forward.Dest).Strs("protocols", cfg.Forward.Protocols).Msg("forward enabled")
	}

	if cfg.Web.Enable {
		h := web.Handler(web.Deps{Status: store, Hub: hub, Logs: logs, Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})})
		go func() {
			if err := web.Serve(ctx, cfg.Web.Listen, h); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Str("listen", cfg.Web.Listen).Msg("web server stopped")
			}
		}()
		logger.Info().Str("listen", cfg.Web.Listen).Msg("web enabled")
	}

	if cfg.Receiver.Reset.Enable && cfg.Source.Kind == config.SourceSerial {
		if err := gpio.Reset(ctx, cfg.Receiver.Reset); err != nil {
			logger.Warn().Err(err).Msg("receiver reset failed")
		} else {
			logger.Info().Str("chip", cfg.Receiver.Reset.Chip).Int("line", cfg.Receiver.Reset.Line).Msg("receiver reset")
		}
	}

	src, desc, err := openSource(ctx, cfg)
	if err != nil {
		store.SetSource(desc, false, err)
		return err
	}
	defer src.Close()
	store.SetSource(desc, true, nil)
	met.SourceUp.Set(1)
	defer met.SourceUp.Set(0)
	logger.Info().Str("source", desc).Str("kind", cfg.Source.Kind).Int("baud", cfg.Source.Baud).Msg("source opened")

	if tcp, ok := src.(*transport.TCP); ok {
		tcp.OnState = func(up bool, err error) {
			store.SetSource(desc, up, err)
			if up {
				met.SourceUp.Set(1)
				logger.Info().Str("source", desc).Msg("source connected")
				return
			}
			met.SourceUp.Set(0)
			logger.Warn().Err(err).Str("source", desc).Msg("source disconnected")
		}
	}

	if cfg.Source.Kind != config.SourceReplay {
		cmds, err := startupCommands(cfg.Receiver)
		if err != nil {
			return err
		}
		for _, c := range cmds {
			if _, err := src.Write(c.frame); err != nil {
				return fmt.Errorf("write %s: %w", c.name, err)
			}
			logger.Info().Str("command", c.name).Msg("receiver configured")
		}
	}

	var r io.Reader = src
	if cfg.Record.Enable {
		w, err := replay.Create(cfg.Record.Path)
		if err != nil {
			return fmt.Errorf("record open failed: %w", err)
		}
		defer w.Close()
		r = io.TeeReader(src, w)
		logger.Info().Str("path", cfg.Record.Path).Msg("recording enabled")
	}

	parsers, err := mux.Build(cfg.Protocols, sinks)
	if err != nil {
		return err
	}
	m := mux.New(sinks, parsers...)
	err = m.Run(ctx, r)
	store.SetSource(desc, false, err)
	return err
}

// openSource returns the byte source. Replay sources accept and drop writes.
func openSource(ctx context.Context, cfg config.Config) (io.ReadWriteCloser, string, error) {
	if cfg.Source.Kind != config.SourceReplay {
		return transport.Open(ctx, cfg.Source)
	}
	recs, err := replay.Load(cfg.Source.Path)
	if err != nil {
		return nil, cfg.Source.Path, fmt.Errorf("replay load failed: %w", err)
	}
	rc := replay.NewSource(ctx, recs, cfg.Source.Speed, cfg.Source.Loop)
	return readOnly{rc}, "replay:" + cfg.Source.Path, nil
}

type readOnly struct{ io.ReadCloser }

func (readOnly) Write(p []byte) (int, error) { return len(p), nil }

func parseProtocols(names []string) ([]gnss.Protocol, error) {
	out := make([]gnss.Protocol, 0, len(names))
	for _, n := range names {
		p, err := gnss.ParseProtocol(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// logSink logs stream anomalies at debug and decoded messages at trace.
type logSink struct {
	logger zerolog.Logger
}

func (s logSink) Frame(gnss.Protocol, []byte) {}

func (s logSink) Message(m gnss.Message) {
	s.logger.Trace().Str("protocol", m.Protocol().String()).Str("key", m.Key()).Msg("message")
}

func (s logSink) Error(err *gnss.ParseError) {
	s.logger.Debug().Str("protocol", err.Protocol.String()).Str("key", err.Key).Str("kind", err.Kind.String()).Err(err.Err).Msg("stream anomaly")
}

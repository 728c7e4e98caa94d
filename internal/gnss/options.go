package gnss

// ParserConfig carries settings common to every protocol parser.
type ParserConfig struct {
	Clock Clock
	// MaxPayload overrides a protocol's default payload capacity when > 0
	// and smaller than the wire maximum.
	MaxPayload int
}

type Option func(*ParserConfig)

// WithClock sets the wall-clock estimate used to resolve truncated time
// fields.
func WithClock(c Clock) Option {
	return func(pc *ParserConfig) {
		if c != nil {
			pc.Clock = c
		}
	}
}

// WithMaxPayload shrinks the frame buffer.
func WithMaxPayload(n int) Option {
	return func(pc *ParserConfig) {
		if n > 0 {
			pc.MaxPayload = n
		}
	}
}

// NewParserConfig applies opts over defaults. limit is the protocol's own
// payload maximum.
func NewParserConfig(limit int, opts ...Option) ParserConfig {
	pc := ParserConfig{Clock: SystemClock, MaxPayload: limit}
	for _, opt := range opts {
		opt(&pc)
	}
	if pc.MaxPayload <= 0 || pc.MaxPayload > limit {
		pc.MaxPayload = limit
	}
	return pc
}

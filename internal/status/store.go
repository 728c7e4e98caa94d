// Package status keeps the latest decoded state of the receiver for the web
// API: the newest message of every type, per-protocol counters, and the
// current fix, survey-in and reference station.
package status

import (
	"sort"
	"sync"
	"time"

	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
)

type StoreConfig struct {
	// MaxEntries limits memory use. When exceeded, the oldest entries are
	// evicted.
	MaxEntries int
	// TTL controls how long a message type is kept without updates.
	TTL time.Duration
	// Clock defaults to gnss.SystemClock.
	Clock gnss.Clock
}

// Entry is the latest message of one protocol and key.
type Entry struct {
	Protocol  string       `json:"protocol"`
	Key       string       `json:"key"`
	Count     uint64       `json:"count"`
	FirstSeen time.Time    `json:"first_seen"`
	LastSeen  time.Time    `json:"last_seen"`
	Message   gnss.Message `json:"message"`
}

type ProtocolStats struct {
	Frames    uint64            `json:"frames"`
	Bytes     uint64            `json:"bytes"`
	Messages  uint64            `json:"messages"`
	Errors    map[string]uint64 `json:"errors,omitempty"`
	LastError string            `json:"last_error,omitempty"`
}

type Fix struct {
	Source    string     `json:"source"`
	Valid     bool       `json:"valid"`
	Position  geo.LLA    `json:"position"`
	AccuracyM *float64   `json:"accuracy_m,omitempty"`
	NumSV     *int       `json:"num_sv,omitempty"`
	UTC       *time.Time `json:"utc,omitempty"`
	At        time.Time  `json:"at"`
}

type Survey struct {
	Active    bool          `json:"active"`
	Valid     bool          `json:"valid"`
	Duration  time.Duration `json:"duration_ns"`
	AccuracyM float64       `json:"accuracy_m"`
	Mean      geo.ECEF      `json:"mean"`
	At        time.Time     `json:"at"`
}

type Base struct {
	StationID uint16    `json:"station_id"`
	ECEF      geo.ECEF  `json:"ecef"`
	Position  geo.LLA   `json:"position"`
	At        time.Time `json:"at"`
}

type Snapshot struct {
	Source    string                   `json:"source,omitempty"`
	SourceUp  bool                     `json:"source_up"`
	LastError string                   `json:"last_error,omitempty"`
	Protocols map[string]ProtocolStats `json:"protocols"`
	Fix       *Fix                     `json:"fix,omitempty"`
	Survey    *Survey                  `json:"survey,omitempty"`
	Base      *Base                    `json:"base,omitempty"`
	Messages  []Entry                  `json:"messages"`
}

// Store is a gnss.Sink that keeps the latest receiver state. Safe for
// concurrent use.
type Store struct {
	mu  sync.Mutex
	cfg StoreConfig

	entries   map[entryKey]*Entry
	protocols map[gnss.Protocol]*ProtocolStats

	source    string
	sourceUp  bool
	lastError string
	fix       *Fix
	survey    *Survey
	base      *Base
}

type entryKey struct {
	p   gnss.Protocol
	key string
}

func NewStore(cfg StoreConfig) *Store {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 256
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = gnss.SystemClock
	}
	return &Store{
		cfg:       cfg,
		entries:   make(map[entryKey]*Entry),
		protocols: make(map[gnss.Protocol]*ProtocolStats),
	}
}

// SetSource records the byte source description and whether it is open.
// A non-nil err is kept as the last error.
func (s *Store) SetSource(desc string, up bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = desc
	s.sourceUp = up
	if err != nil {
		s.lastError = err.Error()
	}
}

func (s *Store) Frame(p gnss.Protocol, frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statsLocked(p)
	st.Frames++
	st.Bytes += uint64(len(frame))
}

func (s *Store) Error(err *gnss.ParseError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statsLocked(err.Protocol)
	if st.Errors == nil {
		st.Errors = make(map[string]uint64)
	}
	st.Errors[err.Kind.String()]++
	st.LastError = err.Error()
}

func (s *Store) Message(m gnss.Message) {
	now := s.cfg.Clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.statsLocked(m.Protocol()).Messages++

	k := entryKey{p: m.Protocol(), key: m.Key()}
	e, ok := s.entries[k]
	if !ok {
		e = &Entry{Protocol: k.p.String(), Key: k.key, FirstSeen: now}
		s.entries[k] = e
	}
	e.Count++
	e.LastSeen = now
	e.Message = m

	s.applyLocked(now, m)

	for len(s.entries) > s.cfg.MaxEntries {
		s.evictOldestLocked()
	}
}

func (s *Store) Snapshot() Snapshot {
	now := s.cfg.Clock()

	s.mu.Lock()
	cutoff := now.Add(-s.cfg.TTL)
	for k, e := range s.entries {
		if e.LastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}

	out := Snapshot{
		Source:    s.source,
		SourceUp:  s.sourceUp,
		LastError: s.lastError,
		Protocols: make(map[string]ProtocolStats, len(s.protocols)),
		Messages:  make([]Entry, 0, len(s.entries)),
	}
	for p, st := range s.protocols {
		cp := *st
		if st.Errors != nil {
			cp.Errors = make(map[string]uint64, len(st.Errors))
			for k, v := range st.Errors {
				cp.Errors[k] = v
			}
		}
		out.Protocols[p.String()] = cp
	}
	for _, e := range s.entries {
		out.Messages = append(out.Messages, *e)
	}
	if s.fix != nil {
		f := *s.fix
		out.Fix = &f
	}
	if s.survey != nil {
		v := *s.survey
		out.Survey = &v
	}
	if s.base != nil {
		b := *s.base
		out.Base = &b
	}
	s.mu.Unlock()

	sort.Slice(out.Messages, func(i, j int) bool {
		a, b := out.Messages[i], out.Messages[j]
		if a.Protocol != b.Protocol {
			return a.Protocol < b.Protocol
		}
		return a.Key < b.Key
	})
	return out
}

func (s *Store) statsLocked(p gnss.Protocol) *ProtocolStats {
	st, ok := s.protocols[p]
	if !ok {
		st = &ProtocolStats{}
		s.protocols[p] = st
	}
	return st
}

func (s *Store) evictOldestLocked() {
	var oldest entryKey
	var oldestAt time.Time
	first := true
	for k, e := range s.entries {
		if first || e.LastSeen.Before(oldestAt) {
			oldest, oldestAt, first = k, e.LastSeen, false
		}
	}
	delete(s.entries, oldest)
}

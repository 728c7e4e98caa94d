package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gnssrx/internal/gnss"
	"gnssrx/internal/mux"
	"gnssrx/internal/replay"
)

type captureSummary struct {
	Segments    int
	Chunks      int
	Bytes       int
	MaxDuration time.Duration
	Frames      map[string]int // by protocol
	Messages    map[string]int // by "protocol key"
	Errors      map[string]int // by "protocol kind"
}

// summarizeCapture runs every chunk of a capture through all parsers.
func summarizeCapture(records []replay.Record) (captureSummary, error) {
	s := captureSummary{
		Frames:   map[string]int{},
		Messages: map[string]int{},
		Errors:   map[string]int{},
	}
	sink := gnss.SinkFuncs{
		OnFrame: func(p gnss.Protocol, _ []byte) { s.Frames[p.String()]++ },
		OnMessage: func(m gnss.Message) {
			s.Messages[m.Protocol().String()+" "+m.Key()]++
		},
		OnError: func(err *gnss.ParseError) {
			s.Errors[err.Protocol.String()+" "+err.Kind.String()]++
		},
	}
	parsers, err := mux.Build(nil, sink)
	if err != nil {
		return s, err
	}
	m := mux.New(sink, parsers...)

	origin := time.Duration(0)
	hasData := false
	segments := 0
	for _, r := range records {
		if r.Data == nil {
			segments++
			origin = r.At
			m.Reset()
			continue
		}
		hasData = true
		s.Chunks++
		s.Bytes += len(r.Data)
		if at := r.At - origin; at > s.MaxDuration {
			s.MaxDuration = at
		}
		m.Feed(r.Data)
	}
	if segments == 0 && hasData {
		segments = 1
	}
	s.Segments = segments
	return s, nil
}

func printSummary(w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	recs, err := replay.Load(path)
	if err != nil {
		return err
	}
	s, err := summarizeCapture(recs)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "chunks: %d\n", s.Chunks)
	fmt.Fprintf(w, "bytes: %d\n", s.Bytes)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)
	printCounts(w, "frames", s.Frames)
	printCounts(w, "messages", s.Messages)
	printCounts(w, "errors", s.Errors)
	return nil
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}

package replay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gnssrx/internal/gnss"
	"gnssrx/internal/mux"
	"gnssrx/internal/nmea"
	"gnssrx/internal/ubx"
)

type fakeSleeper struct {
	slept []time.Duration
}

func (fs *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	fs.slept = append(fs.slept, d)
	return nil
}

func TestReadAll(t *testing.T) {
	in := strings.NewReader(`
# comment

START
0, 0102
10, 0a 0b
`)
	recs, err := ReadAll(in)
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].Data != nil {
		t.Fatalf("expected START marker, got %v", recs[0].Data)
	}
	if !reflect.DeepEqual(recs[1].Data, []byte{0x01, 0x02}) || recs[1].At != 0 {
		t.Fatalf("record 1 = %+v", recs[1])
	}
	if !reflect.DeepEqual(recs[2].Data, []byte{0x0a, 0x0b}) || recs[2].At != 10*time.Nanosecond {
		t.Fatalf("record 2 = %+v", recs[2])
	}
}

func TestReadAll_Invalid(t *testing.T) {
	cases := map[string]string{
		"NoComma":   "not-a-valid-line\n",
		"EmptyHex":  "10,\n",
		"Negative":  "-5,01\n",
		"BadHex":    "5,0g\n",
		"OddLength": "5,012\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadAll(strings.NewReader(in)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPlay_RespectsTimingAndStart(t *testing.T) {
	var got [][]byte
	fs := &fakeSleeper{}
	recs := []Record{
		{At: 1 * time.Second},
		{At: 1 * time.Second, Data: []byte{0xAA}},
		{At: 1*time.Second + 100*time.Nanosecond, Data: []byte{0xBB}},
		{At: 2 * time.Second},
		{At: 2*time.Second + 50*time.Nanosecond, Data: []byte{0xCC}},
	}
	err := Play(context.Background(), recs, 1.0, false, fs, func(data []byte) error {
		got = append(got, append([]byte(nil), data...))
		return nil
	})
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if !reflect.DeepEqual(got, [][]byte{{0xAA}, {0xBB}, {0xCC}}) {
		t.Fatalf("data = %x", got)
	}
	if !reflect.DeepEqual(fs.slept, []time.Duration{100 * time.Nanosecond}) {
		t.Fatalf("slept = %v, want [100ns]", fs.slept)
	}
}

func TestPlay_SpeedMultiplier(t *testing.T) {
	fs := &fakeSleeper{}
	recs := []Record{
		{At: 0, Data: []byte{0x01}},
		{At: 100 * time.Nanosecond, Data: []byte{0x02}},
	}
	if err := Play(context.Background(), recs, 2.0, false, fs, func([]byte) error { return nil }); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if !reflect.DeepEqual(fs.slept, []time.Duration{50 * time.Nanosecond}) {
		t.Fatalf("slept = %v, want [50ns]", fs.slept)
	}
}

func TestPlay_Invalid(t *testing.T) {
	recs := []Record{{At: 0, Data: []byte{0x01}}}
	nop := func([]byte) error { return nil }
	if err := Play(context.Background(), recs, 0, false, nil, nop); err == nil {
		t.Fatalf("expected speed error")
	}
	if err := Play(context.Background(), []Record{{}}, 1, false, nil, nop); err == nil {
		t.Fatalf("expected no-records error")
	}
}

func TestPlay_LoopStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	n := 0
	recs := []Record{{At: 0, Data: []byte{0x01}}}
	err := Play(context.Background(), recs, 1, true, &fakeSleeper{}, func([]byte) error {
		n++
		if n == 5 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || n != 5 {
		t.Fatalf("err=%v n=%d", err, n)
	}
}

func TestPlay_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recs := []Record{{At: 0, Data: []byte{0x01}}}
	if err := Play(ctx, recs, 1, true, nil, func([]byte) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}

func TestWriter_WritesExpectedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	w.start = time.Unix(0, 0)
	w.now = func() time.Time { return time.Unix(0, 20) }

	if _, err := w.Write([]byte{0x01, 0x02}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if n, err := w.Write(nil); n != 0 || err != nil {
		t.Fatalf("empty Write() = %d, %v", n, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if _, err := w.Write([]byte{0x03}); err == nil {
		t.Fatalf("expected error after Close")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(b) != "START\n20,0102\n" {
		t.Fatalf("unexpected file contents: %q", string(b))
	}
}

// A capture taken through io.TeeReader replays into the same decoded stream.
func TestCaptureReplay_RoundTripThroughMux(t *testing.T) {
	ack, err := ubx.Frame(0x05, 0x01, []byte{0x06, 0x8A})
	if err != nil {
		t.Fatalf("ubx.Frame() error: %v", err)
	}
	gll := nmea.Frame([]byte("GPGLL,5057.970,N,00146.110,E,142451,A"))
	live := append(append([]byte(nil), ack...), gll...)

	path := filepath.Join(t.TempDir(), "capture.log")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	// Odd chunking splits frames across records.
	src := io.TeeReader(&chunkReader{data: live, size: 7}, w)
	if _, err := io.Copy(io.Discard, src); err != nil {
		t.Fatalf("Copy() error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	recs, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	var replayed bytes.Buffer
	for _, r := range recs {
		replayed.Write(r.Data)
	}
	if !bytes.Equal(replayed.Bytes(), live) {
		t.Fatalf("replayed bytes differ")
	}

	var c gnss.Collector
	parsers, err := mux.Build([]string{"ubx", "nmea"}, &c)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	m := mux.New(&c, parsers...)
	rc := NewSource(context.Background(), recs, 1000, false)
	defer rc.Close()
	if err := m.Run(context.Background(), rc); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(c.Messages) != 2 || len(c.Errors) != 0 {
		t.Fatalf("messages=%d errors=%v", len(c.Messages), c.Errors)
	}
	if c.Messages[0].Key() != "05-01" || c.Messages[1].Key() != "GLL" {
		t.Fatalf("keys=%s,%s", c.Messages[0].Key(), c.Messages[1].Key())
	}
}

type chunkReader struct {
	data []byte
	size int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.size
	if n > len(p) {
		n = len(p)
	}
	if n > len(r.data) {
		n = len(r.data)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

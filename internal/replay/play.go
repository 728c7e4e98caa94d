package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Play delivers records to cb with their relative timing. START markers
// reset the origin. speed 1.0 is real time, 2.0 halves every wait.
func Play(ctx context.Context, records []Record, speed float64, loop bool, sleeper Sleeper, cb func(data []byte) error) error {
	if speed <= 0 {
		return fmt.Errorf("speed must be > 0")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if cb == nil {
		return errors.New("callback is nil")
	}
	if countData(records) == 0 {
		return errors.New("no records")
	}

	for {
		var origin, lastAt time.Duration
		haveLast := false

		for _, r := range records {
			if r.Data == nil {
				origin = r.At
				haveLast = false
				continue
			}

			at := r.At - origin
			if at < 0 {
				at = 0
			}
			if haveLast {
				wait := time.Duration(float64(at-lastAt) / speed)
				if wait > 0 {
					if err := sleeper.Sleep(ctx, wait); err != nil {
						return err
					}
				}
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := cb(r.Data); err != nil {
				return err
			}
			lastAt = at
			haveLast = true
		}

		if !loop {
			return nil
		}
	}
}

// NewSource plays records into a pipe so a capture can stand in for a live
// receiver. The reader reports io.EOF after the last record, or the play
// error if one occurred.
func NewSource(ctx context.Context, records []Record, speed float64, loop bool) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		err := Play(ctx, records, speed, loop, nil, func(data []byte) error {
			_, err := pw.Write(data)
			return err
		})
		_ = pw.CloseWithError(err)
	}()
	return pr
}

func countData(records []Record) int {
	n := 0
	for _, r := range records {
		if r.Data != nil {
			n++
		}
	}
	return n
}

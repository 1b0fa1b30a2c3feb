package watch

import (
	"context"
	"fmt"
	"io"
)

// Stream writes the segment once, then again after every change signal, until
// ctx is done or events is closed. Consecutive identical lines are skipped.
// Outside a repository an empty line is written.
func Stream(ctx context.Context, w io.Writer, fetch SegmentFunc, events <-chan struct{}) error {
	last := ""
	first := true

	emit := func() error {
		segment, inRepo, err := fetch(ctx)
		if err != nil {
			return err
		}
		if !inRepo {
			segment = ""
		}
		if !first && segment == last {
			return nil
		}
		first = false
		last = segment
		_, err = fmt.Fprintln(w, segment)
		return err
	}

	if err := emit(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			if err := emit(); err != nil {
				return err
			}
		}
	}
}

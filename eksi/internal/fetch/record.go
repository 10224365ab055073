package fetch

import (
	"context"
	"time"
)

// Record describes one fetch attempt for the fetch log.
type Record struct {
	URL      string
	Status   int
	Bytes    int
	Duration time.Duration
	Err      string
}

// Recorder receives one Record per fetch attempt.
type Recorder interface {
	Record(ctx context.Context, rec Record)
}

// Recorded decorates a Client so every attempt, successful or not, is
// reported to the Recorder. Placed inside the cache decorator, it only sees
// fetches that actually hit the origin.
type Recorded struct {
	inner    Client
	recorder Recorder
}

// WithRecorder wraps inner; a nil recorder returns inner unchanged.
func WithRecorder(inner Client, r Recorder) Client {
	if r == nil {
		return inner
	}
	return &Recorded{inner: inner, recorder: r}
}

func (r *Recorded) Fetch(ctx context.Context, url string) (*Result, error) {
	start := time.Now()
	res, err := r.inner.Fetch(ctx, url)

	rec := Record{URL: url, Duration: time.Since(start)}
	if res != nil {
		rec.Status = res.StatusCode
		rec.Bytes = len(res.Body)
	}
	if err != nil {
		rec.Err = err.Error()
	}
	r.recorder.Record(ctx, rec)

	return res, err
}

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RetryUntilSuccess(t *testing.T) {
	s, err := New(&Config{DefaultJobOptions: JobOptions{MaxRetries: 3, InitialBackoff: time.Millisecond}})
	require.NoError(t, err)

	var calls atomic.Int32
	_, err = s.AddFunc("flaky", "@every 1h", func(ctx context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.RunNow("flaky"))
	assert.EqualValues(t, 3, calls.Load())

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.EqualValues(t, 1, jobs[0].RunCount)
	assert.EqualValues(t, 0, jobs[0].FailCount)
}

func TestScheduler_NoRetry(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	var calls atomic.Int32
	_, err = s.AddFunc("once", "@every 1h", func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	}, WithNoRetry())
	require.NoError(t, err)

	assert.Error(t, s.RunNow("once"))
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 1, s.ListJobs()[0].FailCount)
}

func TestScheduler_AddFuncErrors(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	_, err = s.AddFunc("bad", "not a spec", func(context.Context) error { return nil })
	assert.Error(t, err)

	_, err = s.AddFunc("a", "@every 1m", func(context.Context) error { return nil })
	require.NoError(t, err)
	_, err = s.AddFunc("a", "@every 1m", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrDuplicateJob)

	_, err = New(&Config{Timezone: "Nowhere/Invalid"})
	assert.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := New(&Config{WithSeconds: true})
	require.NoError(t, err)

	var calls atomic.Int32
	_, err = s.AddFunc("tick", "* * * * * *", func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestBackoff(t *testing.T) {
	o := JobOptions{BackoffStrategy: BackoffExponential, InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, o.backoff(1))
	assert.Equal(t, 200*time.Millisecond, o.backoff(2))
	assert.Equal(t, 300*time.Millisecond, o.backoff(3))

	o.BackoffStrategy = BackoffFixed
	assert.Equal(t, 100*time.Millisecond, o.backoff(3))
}

package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunNow(t *testing.T) {
	var results []string
	s := New(func(name string, err error) {
		if err != nil {
			results = append(results, name+":"+err.Error())
			return
		}
		results = append(results, name+":ok")
	})
	s.Register(Job{Name: "ok", Interval: time.Hour, Fn: func(context.Context) error { return nil }})
	s.Register(Job{Name: "bad", Interval: time.Hour, Fn: func(context.Context) error { return errors.New("boom") }})

	require.NoError(t, s.RunNow(context.Background(), "ok"))
	assert.EqualError(t, s.RunNow(context.Background(), "bad"), "boom")
	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrJobNotFound)
	assert.Equal(t, []string{"ok:ok", "bad:boom"}, results)

	items := s.List()
	require.Len(t, items, 2)
	assert.Equal(t, "bad", items[0].Name)
	assert.Equal(t, StatusFailed, items[0].Status)
	assert.Equal(t, "boom", items[0].Message)
	assert.Equal(t, StatusSuccess, items[1].Status)
	assert.NotNil(t, items[1].LastRunAt)
}

func TestScheduler_StartRunsOnInterval(t *testing.T) {
	var runs atomic.Int32
	s := New(nil)
	s.Register(Job{Name: "tick", Interval: 10 * time.Millisecond, Fn: func(context.Context) error {
		runs.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()
}

func TestScheduler_RunInBackground(t *testing.T) {
	done := make(chan struct{})
	s := New(nil)
	s.Register(Job{Name: "bg", Interval: time.Hour, Fn: func(context.Context) error {
		close(done)
		return nil
	}})

	require.NoError(t, s.Run(context.Background(), "bg"))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
	s.Wait()
	assert.ErrorIs(t, s.Run(context.Background(), "nope"), ErrJobNotFound)
}

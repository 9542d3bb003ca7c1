package playground

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebounce(t *testing.T) {
	in := make(chan string)
	got := make(chan string, 10)
	done := make(chan error, 1)

	go func() {
		done <- Debounce(context.Background(), in, 50*time.Millisecond, func(s string) error {
			got <- s
			return nil
		})
	}()

	for _, s := range []string{"a", "b", "c"} {
		in <- s
	}
	require.Equal(t, "c", receive(t, got))

	in <- "d"
	require.Equal(t, "d", receive(t, got))

	close(in)
	require.NoError(t, <-done)
	require.Empty(t, got)
}

func TestDebounce_ClosedDropsPending(t *testing.T) {
	in := make(chan string, 2)
	in <- "a"
	close(in)

	called := false
	err := Debounce(context.Background(), in, time.Hour, func(string) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.False(t, called)
}

func TestDebounce_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan string, 1)
	in <- "a"

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := Debounce(ctx, in, time.Hour, func(string) error {
		t.Error("fn called after cancel")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDebounce_Error(t *testing.T) {
	errFailed := errors.New("failed")
	in := make(chan string, 1)
	in <- "a"

	err := Debounce(context.Background(), in, time.Millisecond, func(s string) error {
		require.Equal(t, "a", s)
		return errFailed
	})
	require.ErrorIs(t, err, errFailed)
}

func receive(t *testing.T, c <-chan string) string {
	t.Helper()
	select {
	case s := <-c:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for debounced value")
		return ""
	}
}

package feed

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeDeliversInitially(t *testing.T) {
	f := New()
	defer f.Close()

	delivered := make(chan struct{}, 1)
	unsubscribe := f.Subscribe(func() { delivered <- struct{}{} })
	defer unsubscribe()

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("initial delivery missing")
	}
}

func TestPublishCoalesces(t *testing.T) {
	f := New()
	defer f.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	unsubscribe := f.Subscribe(func() {
		if calls.Add(1) == 1 {
			<-release
		}
	})
	defer unsubscribe()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	for range 10 {
		f.Publish()
	}
	close(release)

	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}

func TestUnsubscribeAndClose(t *testing.T) {
	f := New()

	unsubscribe := f.Subscribe(func() {})
	f.Subscribe(func() {})
	assert.Equal(t, 2, f.Len())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 1, f.Len())

	f.Close()
	assert.Zero(t, f.Len())

	var calls atomic.Int32
	f.Subscribe(func() { calls.Add(1) })
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

package handle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendAndShutdownReturnsResult(t *testing.T) {
	h := Spawn(func(mailbox <-chan int) int {
		sum := 0
		for v := range mailbox {
			sum += v
		}
		return sum
	})

	require.NoError(t, h.Send(1))
	require.NoError(t, h.Send(2))
	require.NoError(t, h.Send(3))

	require.Equal(t, 6, h.Shutdown())
}

func TestSendAfterShutdownErrors(t *testing.T) {
	h := Spawn(func(mailbox <-chan int) struct{} {
		for range mailbox {
		}
		return struct{}{}
	})
	h.Shutdown()
	require.Error(t, h.Send(1))
}

func TestDoubleShutdownPanics(t *testing.T) {
	h := Spawn(func(mailbox <-chan int) struct{} {
		for range mailbox {
		}
		return struct{}{}
	})
	h.Shutdown()
	require.Panics(t, func() { h.Shutdown() })
}

// A burst well past any fixed channel capacity must not block Send,
// since the mailbox is unbounded: the task below never reads until
// every Send below has already returned.
func TestSendNeverBlocksOnBurstLargerThanAnyFixedBuffer(t *testing.T) {
	const n = 10_000
	release := make(chan struct{})
	h := Spawn(func(mailbox <-chan int) int {
		<-release
		count := 0
		for range mailbox {
			count++
		}
		return count
	})

	for i := 0; i < n; i++ {
		require.NoError(t, h.Send(i))
	}
	close(release)

	require.Equal(t, n, h.Shutdown())
}

func TestNewUnboundedChanPreservesOrderAndDrainsOnClose(t *testing.T) {
	in, out := NewUnboundedChan[int]()
	for i := 0; i < 100; i++ {
		in <- i
	}
	close(in)

	got := make([]int, 0, 100)
	for v := range out {
		got = append(got, v)
	}
	require.Len(t, got, 100)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPreservesOrder(t *testing.T) {
	q := New[int]()
	defer q.Close()

	for i := 0; i < 100; i++ {
		q.Push(i)
	}
	for i := 0; i < 100; i++ {
		select {
		case got := <-q.C():
			assert.Equal(t, i, got)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for item %d", i)
		}
	}
}

func TestPushNeverBlocksWithoutConsumer(t *testing.T) {
	q := New[int]()
	defer q.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			q.Push(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Push blocked with no consumer")
	}
}

func TestCloseDrainsBufferedItems(t *testing.T) {
	q := New[string]()
	q.Push("a")
	q.Push("b")
	q.Close()

	var got []string
	for v := range q.C() {
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestPushAfterCloseIsDropped(t *testing.T) {
	q := New[int]()
	q.Close()
	q.Push(1)

	_, ok := <-q.C()
	require.False(t, ok, "channel should be closed with no items")
}

func TestCloseIsIdempotent(t *testing.T) {
	q := New[int]()
	q.Close()
	q.Close()
}

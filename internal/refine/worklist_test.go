package refine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshforge/internal/mesh"
)

func TestWorkListLIFO(t *testing.T) {
	wl := newWorkList()
	a, b := &mesh.Node{}, &mesh.Node{}
	wl.Push(a)
	wl.Push(b)
	assert.Equal(t, 2, wl.Len())

	n, ok := wl.Pop()
	require.True(t, ok)
	assert.Same(t, b, n)
	wl.Done()

	n, ok = wl.Pop()
	require.True(t, ok)
	assert.Same(t, a, n)
	wl.Done()

	_, ok = wl.Pop()
	assert.False(t, ok, "drained list must report exhaustion")
}

func TestWorkListWaitsForInFlightWork(t *testing.T) {
	wl := newWorkList()
	a, b := &mesh.Node{}, &mesh.Node{}
	wl.Push(a)

	n, ok := wl.Pop()
	require.True(t, ok)
	require.Same(t, a, n)

	// The list is empty but a is still in flight: a concurrent Pop must
	// wait for whatever a pushes rather than report exhaustion.
	go func() {
		time.Sleep(10 * time.Millisecond)
		wl.Push(b)
		wl.Done()
	}()

	n, ok = wl.Pop()
	require.True(t, ok)
	assert.Same(t, b, n)
	wl.Done()

	_, ok = wl.Pop()
	assert.False(t, ok)
}

func TestWorkListClose(t *testing.T) {
	wl := newWorkList()
	wl.Push(&mesh.Node{})
	_, ok := wl.Pop()
	require.True(t, ok)

	// Pop is now blocked on the in-flight item; Close must wake it.
	done := make(chan bool, 1)
	go func() {
		_, ok := wl.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	wl.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up on Close")
	}

	wl.Push(&mesh.Node{})
	assert.Equal(t, 0, wl.Len(), "pushes after Close are dropped")
}

package scanning

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := newQueue()
	for _, b := range []string{"1", "2", "3"} {
		require.True(t, q.enqueue(request{barcode: b}))
	}
	assert.Equal(t, 3, q.len())

	var got []string
	for {
		r, ok := q.tryDequeue()
		if !ok {
			break
		}
		got = append(got, r.barcode)
	}
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestQueue_SignalCoalesces(t *testing.T) {
	q := newQueue()
	q.enqueue(request{barcode: "1"})
	q.enqueue(request{barcode: "2"})

	<-q.wait()
	select {
	case <-q.wait():
		t.Fatal("expected a single pending signal")
	default:
	}
}

func TestQueue_Close(t *testing.T) {
	q := newQueue()
	q.enqueue(request{barcode: "1"})

	assert.Equal(t, 1, q.close())
	assert.Equal(t, 0, q.close())
	assert.False(t, q.enqueue(request{barcode: "2"}))

	_, ok := <-q.wait()
	assert.False(t, ok)
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := newQueue()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.enqueue(request{barcode: "x"})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, q.len())
}

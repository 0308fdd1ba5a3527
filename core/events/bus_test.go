package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus(t *testing.T) {
	t.Run("Fan out", func(t *testing.T) {
		bus := NewBus[string]()
		a, cancelA := bus.Subscribe(4)
		b, cancelB := bus.Subscribe(4)
		defer cancelA()
		defer cancelB()

		assert.Equal(t, 2, bus.Publish("123"))
		assert.Equal(t, "123", <-a)
		assert.Equal(t, "123", <-b)
	})

	t.Run("Full subscriber is skipped", func(t *testing.T) {
		bus := NewBus[int]()
		ch, cancel := bus.Subscribe(1)
		defer cancel()

		assert.Equal(t, 1, bus.Publish(1))
		assert.Equal(t, 0, bus.Publish(2))
		assert.Equal(t, 1, <-ch)
	})

	t.Run("Cancel closes channel", func(t *testing.T) {
		bus := NewBus[int]()
		ch, cancel := bus.Subscribe(1)
		cancel()
		cancel()

		_, ok := <-ch
		assert.False(t, ok)
		assert.Equal(t, 0, bus.Publish(1))
	})

	t.Run("Close", func(t *testing.T) {
		bus := NewBus[int]()
		ch, cancel := bus.Subscribe(1)
		bus.Close()
		cancel()

		_, ok := <-ch
		assert.False(t, ok)

		late, _ := bus.Subscribe(1)
		_, ok = <-late
		assert.False(t, ok)
	})
}

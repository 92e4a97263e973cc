package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omraut/carbon-terminal/internal/model"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	s := NewConfigStore(model.DefaultGlobalConfig("1084459329478"))

	got := s.Get()
	assert.Equal(t, 0.82, got.S2Factor)

	next := got
	next.S2Factor = 1.1
	s.Set(next)
	assert.Equal(t, 1.1, s.Get().S2Factor)
}

func TestConfigStore_SubscriberSeesUpdate(t *testing.T) {
	s := NewConfigStore(model.DefaultGlobalConfig("p"))
	ch := s.Subscribe()

	next := s.Get()
	next.S1Factor = 3.5
	s.Set(next)

	select {
	case got := <-ch:
		assert.Equal(t, 3.5, got.S1Factor)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive update")
	}
}

func TestConfigStore_SlowSubscriberDoesNotBlockSetter(t *testing.T) {
	s := NewConfigStore(model.DefaultGlobalConfig("p"))
	_ = s.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			cfg := s.Get()
			cfg.S3Factor = float64(i)
			s.Set(cfg)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Set blocked on a slow subscriber")
	}
	assert.Equal(t, float64(9), s.Get().S3Factor)
}

func TestConfigStore_Override(t *testing.T) {
	s := NewConfigStore(model.DefaultGlobalConfig("p"))
	require.False(t, s.Overridden())
	assert.False(t, s.SetOverride(true), "previous state was off")
	assert.True(t, s.Overridden())
	assert.True(t, s.SetOverride(false), "previous state was on")
	assert.False(t, s.Overridden())
}

// Package state holds the process-wide mutable terminal state: the global
// emission calibration and the system override flag. Mutation is funneled
// through single setters so every consumer observes the same value; writes
// are last-write-wins with no conflict detection, matching the authority
// console's contract.
package state

import (
	"sync"

	"github.com/omraut/carbon-terminal/internal/model"
)

// ConfigStore guards the global calibration. Subscribers receive every new
// config on a buffered channel; a slow subscriber misses intermediate values
// rather than blocking the setter.
type ConfigStore struct {
	mu         sync.RWMutex
	cfg        model.GlobalConfig
	overridden bool
	subs       []chan model.GlobalConfig
}

func NewConfigStore(initial model.GlobalConfig) *ConfigStore {
	return &ConfigStore{cfg: initial}
}

// Get returns the current calibration.
func (s *ConfigStore) Get() model.GlobalConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Set replaces the calibration and notifies subscribers. Last write wins.
func (s *ConfigStore) Set(cfg model.GlobalConfig) {
	s.mu.Lock()
	s.cfg = cfg
	subs := make([]chan model.GlobalConfig, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- cfg:
		default:
		}
	}
}

// Subscribe returns a channel that receives each subsequent calibration.
func (s *ConfigStore) Subscribe() <-chan model.GlobalConfig {
	ch := make(chan model.GlobalConfig, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// Overridden reports the system override flag.
func (s *ConfigStore) Overridden() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overridden
}

// SetOverride sets the system override flag and returns the previous value.
func (s *ConfigStore) SetOverride(v bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.overridden
	s.overridden = v
	return prev
}

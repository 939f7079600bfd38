package agent

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lox/blef/internal/deck"
)

// Spec configures one named agent. Exactly one of Strategy and URL is set.
type Spec struct {
	Name     string
	Strategy string
	URL      string
	Timeout  time.Duration
}

// Registry maps agent names to deciders. It satisfies the service's agent
// catalog so only configured names can be invited.
type Registry struct {
	deciders map[string]Decider
}

// NewRegistry builds deciders for specs. Built in strategies share rng.
func NewRegistry(specs []Spec, rng deck.RandSource) (*Registry, error) {
	r := &Registry{deciders: make(map[string]Decider, len(specs))}
	for _, s := range specs {
		if s.Name == "" {
			return nil, errors.New("agent name must not be empty")
		}
		if _, dup := r.deciders[s.Name]; dup {
			return nil, fmt.Errorf("agent %q defined twice", s.Name)
		}
		d, err := newDecider(s, rng)
		if err != nil {
			return nil, err
		}
		r.deciders[s.Name] = d
	}
	return r, nil
}

func newDecider(s Spec, rng deck.RandSource) (Decider, error) {
	switch {
	case s.URL != "" && s.Strategy != "":
		return nil, fmt.Errorf("agent %q: strategy and url are mutually exclusive", s.Name)
	case s.URL != "":
		return NewHTTPDecider(s.URL, s.Timeout), nil
	}
	d, ok := Strategy(s.Strategy, rng)
	if !ok {
		return nil, fmt.Errorf("agent %q: unknown strategy %q", s.Name, s.Strategy)
	}
	return d, nil
}

// Strategy returns the built in strategy called name.
func Strategy(name string, rng deck.RandSource) (Decider, bool) {
	switch name {
	case StrategyRandom:
		return NewRandom(rng), true
	case StrategyCautious:
		return Cautious{}, true
	default:
		return nil, false
	}
}

// Register adds or replaces a decider. Call it before the dispatcher runs.
func (r *Registry) Register(name string, d Decider) {
	r.deciders[name] = d
}

// Has reports whether name is a configured agent.
func (r *Registry) Has(name string) bool {
	_, ok := r.deciders[name]
	return ok
}

// Decider returns the decider for name.
func (r *Registry) Decider(name string) (Decider, bool) {
	d, ok := r.deciders[name]
	return d, ok
}

// Names returns the configured agent names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.deciders))
	for n := range r.deciders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

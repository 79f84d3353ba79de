package eeprom

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/ardnew/softeeprom/pkg"
)

// Registry is the table of attached instances keyed by minor id.
//
// Minor ids come from a counter that only increases; a detached id is
// never handed out again, so a dangling session can never resolve to a
// different device. The live-instance count is tracked separately and is
// what the maximum applies to.
type Registry struct {
	instances map[Minor]*Instance
	next      Minor
	exhausted bool // The last minor id has been handed out
	max       int
	mutex     sync.RWMutex
}

// NewRegistry creates a registry holding at most max live instances.
func NewRegistry(max int) *Registry {
	return &Registry{
		instances: make(map[Minor]*Instance),
		max:       max,
	}
}

// Attach assigns the next minor id to inst and inserts it.
func (r *Registry) Attach(inst *Instance) (Minor, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.instances) >= r.max {
		return 0, fmt.Errorf("%w (%d)", pkg.ErrCapacityExceeded, r.max)
	}
	if r.exhausted {
		return 0, fmt.Errorf("%w: minor ids exhausted", pkg.ErrCapacityExceeded)
	}

	minor := r.next
	if minor == math.MaxUint32 {
		r.exhausted = true
	} else {
		r.next++
	}
	inst.minor = minor
	r.instances[minor] = inst

	pkg.LogDebug(pkg.ComponentRegistry, "minor allocated",
		"minor", minor,
		"live", len(r.instances))
	return minor, nil
}

// Detach removes and returns the instance with the given minor id.
func (r *Registry) Detach(minor Minor) (*Instance, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	inst, ok := r.instances[minor]
	if !ok {
		return nil, fmt.Errorf("minor %d: %w", minor, pkg.ErrNotFound)
	}
	delete(r.instances, minor)

	pkg.LogDebug(pkg.ComponentRegistry, "minor released",
		"minor", minor,
		"live", len(r.instances))
	return inst, nil
}

// Lookup returns the instance with the given minor id.
func (r *Registry) Lookup(minor Minor) (*Instance, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	inst, ok := r.instances[minor]
	if !ok {
		return nil, fmt.Errorf("minor %d: %w", minor, pkg.ErrNotFound)
	}
	return inst, nil
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.instances)
}

// Max returns the maximum number of live instances.
func (r *Registry) Max() int {
	return r.max
}

// Instances returns the live instances ordered by minor id.
func (r *Registry) Instances() []*Instance {
	r.mutex.RLock()
	result := make([]*Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		result = append(result, inst)
	}
	r.mutex.RUnlock()

	slices.SortFunc(result, func(a, b *Instance) int {
		return cmp.Compare(a.minor, b.minor)
	})
	return result
}

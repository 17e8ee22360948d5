package suite

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// Registry holds test cases in registration order. IDs are unique within a registry.
type Registry struct {
	cases []TestCase
	ids   map[CaseID]struct{}
	lock  sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{ids: make(map[CaseID]struct{})}
}

// Add registers cases. If any of them is invalid or has an ID that is already registered,
// nothing is added.
func (r *Registry) Add(cases ...TestCase) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.ids == nil {
		r.ids = make(map[CaseID]struct{})
	}
	seen := make(map[CaseID]struct{})
	for _, c := range cases {
		if err := c.validate(); err != nil {
			return err
		}
		id := c.ID()
		if _, ok := r.ids[id]; ok {
			return fmt.Errorf("duplicate test case %q", id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate test case %q", id)
		}
		seen[id] = struct{}{}
	}
	for _, c := range cases {
		r.ids[c.ID()] = struct{}{}
		r.cases = append(r.cases, c)
	}
	return nil
}

// MustAdd is Add for built-in catalogs, where an error is a programming mistake.
func (r *Registry) MustAdd(cases ...TestCase) {
	if err := r.Add(cases...); err != nil {
		panic(err)
	}
}

// Cases returns a copy of the registered cases in order.
func (r *Registry) Cases() []TestCase {
	r.lock.Lock()
	defer r.lock.Unlock()
	return slices.Clone(r.cases)
}

// Groups returns the group names in the order they were first registered.
func (r *Registry) Groups() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	var ret []string
	for _, c := range r.cases {
		if !slices.Contains(ret, c.Group) {
			ret = append(ret, c.Group)
		}
	}
	return ret
}

// Select returns the cases that belong to one of the groups and apply to the transport. An
// empty group list means all groups.
func (r *Registry) Select(groups []string, transport string) []TestCase {
	var ret []TestCase
	for _, c := range r.Cases() {
		if len(groups) != 0 && !slices.Contains(groups, c.Group) {
			continue
		}
		if !c.AppliesTo(transport) {
			continue
		}
		ret = append(ret, c)
	}
	return ret
}

func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.cases)
}

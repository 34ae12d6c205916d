package skills

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Catalog is the explicit table of compiled skills, keyed by skill name.
// The loader binds discovered source artifacts to catalog entries by name.
type Catalog struct {
	mu     sync.RWMutex
	skills map[string]Skill
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		skills: make(map[string]Skill),
	}
}

// Register adds a skill under name. Registering the same name twice is an error.
func (c *Catalog) Register(name string, skill Skill) error {
	if name == "" {
		return errors.New("skill name is required")
	}
	if skill == nil {
		return errors.Errorf("skill '%s' is nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.skills[name]; exists {
		return errors.Errorf("skill '%s' is already registered", name)
	}
	c.skills[name] = skill
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// package initialisation of built-in tables.
func (c *Catalog) MustRegister(name string, skill Skill) {
	if err := c.Register(name, skill); err != nil {
		panic(err)
	}
}

// Lookup returns the skill registered under name.
func (c *Catalog) Lookup(name string) (Skill, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	skill, ok := c.skills[name]
	return skill, ok
}

// Names returns the registered names in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.skills))
	for name := range c.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package store holds raw extracted entities keyed by name in insertion
// order.
package store

import (
	"fmt"
	"strings"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
)

// EntityStore keeps entities in insertion order. Adding a name that already
// exists merges the new record into the old one.
type EntityStore struct {
	order []string
	byKey map[string]*model.Entity
}

func NewEntityStore() *EntityStore {
	return &EntityStore{byKey: make(map[string]*model.Entity)}
}

// FromEntities builds a store from a list, merging exact-name repeats.
func FromEntities(entities []model.Entity) *EntityStore {
	s := NewEntityStore()
	for _, e := range entities {
		s.Add(e)
	}
	return s
}

// Add inserts e or merges it into the existing entity of the same name.
// It reports whether a new name was inserted.
func (s *EntityStore) Add(e model.Entity) bool {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return false
	}
	if existing, ok := s.byKey[e.Name]; ok {
		existing.Merge(e)
		return false
	}
	c := e.Clone()
	s.byKey[e.Name] = &c
	s.order = append(s.order, e.Name)
	return true
}

func (s *EntityStore) Get(name string) (model.Entity, bool) {
	e, ok := s.byKey[name]
	if !ok {
		return model.Entity{}, false
	}
	return e.Clone(), true
}

func (s *EntityStore) Has(name string) bool {
	_, ok := s.byKey[name]
	return ok
}

func (s *EntityStore) Len() int {
	return len(s.order)
}

// Entities returns copies in insertion order.
func (s *EntityStore) Entities() []model.Entity {
	out := make([]model.Entity, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byKey[name].Clone())
	}
	return out
}

// Replace swaps the whole content. Duplicate names are a data-integrity
// error.
func (s *EntityStore) Replace(entities []model.Entity) error {
	order := make([]string, 0, len(entities))
	byKey := make(map[string]*model.Entity, len(entities))
	for _, e := range entities {
		if _, dup := byKey[e.Name]; dup {
			return fmt.Errorf("duplicate entity name %q", e.Name)
		}
		c := e.Clone()
		byKey[e.Name] = &c
		order = append(order, e.Name)
	}
	s.order, s.byKey = order, byKey
	return nil
}

// Split returns characters and non-characters, each in insertion order.
func (s *EntityStore) Split() (characters, others []model.Entity) {
	for _, e := range s.Entities() {
		if e.IsCharacter() {
			characters = append(characters, e)
		} else {
			others = append(others, e)
		}
	}
	return characters, others
}

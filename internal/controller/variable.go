package controller

import (
	"github.com/Iron-Ham/sparcli/internal/event"
	"github.com/Iron-Ham/sparcli/internal/series"
)

// Variable is one named sparkline: its history plus the producers that
// are currently contributing to it.
type Variable struct {
	Name   string
	Series *series.CompactingSeries

	producers map[event.ProducerID]struct{}
}

func newVariable(name string, s *series.CompactingSeries) *Variable {
	return &Variable{
		Name:      name,
		Series:    s,
		producers: make(map[event.ProducerID]struct{}),
	}
}

// Reference marks id as contributing to the variable.
func (v *Variable) Reference(id event.ProducerID) {
	v.producers[id] = struct{}{}
}

// Dereference removes id from the contributors.
func (v *Variable) Dereference(id event.ProducerID) {
	delete(v.producers, id)
}

// Live reports whether any producer still contributes.
func (v *Variable) Live() bool {
	return len(v.producers) > 0
}

// Producers returns the number of contributing producers.
func (v *Variable) Producers() int {
	return len(v.producers)
}

// Snapshot is the read-only view of a variable handed to the renderer.
type Snapshot struct {
	Name   string
	Values []float64
}

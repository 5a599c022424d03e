// Package summary implements scalar metric tracking for learning
// runs. Agents write scalars such as their training loss through the
// Writer interface; a nil Writer is legal and agents simply skip
// reporting when none is set.
package summary

import (
	"encoding/gob"
	"fmt"
	"os"
	"sort"
)

// Writer records scalar metrics tagged with the learn step at which
// they were measured.
type Writer interface {
	AddScalar(tag string, step int, value float64)
}

// Point is a single recorded scalar
type Point struct {
	Step  int
	Value float64
}

// Tracker is a Writer that accumulates scalars in memory and can
// persist them with gob. The zero value is not usable; construct
// Trackers with NewTracker.
type Tracker struct {
	Scalars map[string][]Point
}

// NewTracker returns a new empty Tracker
func NewTracker() *Tracker {
	return &Tracker{Scalars: make(map[string][]Point)}
}

// AddScalar implements the Writer interface
func (t *Tracker) AddScalar(tag string, step int, value float64) {
	t.Scalars[tag] = append(t.Scalars[tag], Point{Step: step, Value: value})
}

// Scalar returns the recorded points for a tag in the order they were
// written.
func (t *Tracker) Scalar(tag string) []Point {
	return t.Scalars[tag]
}

// Tags returns the sorted tags with at least one recorded point.
func (t *Tracker) Tags() []string {
	tags := make([]string, 0, len(t.Scalars))
	for tag := range t.Scalars {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Save persists the tracker to a file
func (t *Tracker) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(t); err != nil {
		return fmt.Errorf("save: could not encode tracker: %v", err)
	}
	return nil
}

// LoadTracker reads a tracker previously persisted with Save
func LoadTracker(filename string) (*Tracker, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadtracker: could not open file: %v", err)
	}
	defer file.Close()

	var t Tracker
	if err := gob.NewDecoder(file).Decode(&t); err != nil {
		return nil, fmt.Errorf("loadtracker: could not decode tracker: %v",
			err)
	}
	return &t, nil
}

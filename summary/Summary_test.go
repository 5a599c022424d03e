package summary

import (
	"path/filepath"
	"testing"
)

// TestTrackerRecordsInOrder ensures points are returned in the order
// they were written.
func TestTrackerRecordsInOrder(t *testing.T) {
	tracker := NewTracker()
	tracker.AddScalar("Loss", 1, 0.5)
	tracker.AddScalar("Loss", 2, 0.25)
	tracker.AddScalar("Distance", 1, 3.0)

	points := tracker.Scalar("Loss")
	if len(points) != 2 {
		t.Fatalf("wrong number of points \n\twant(2)\n\thave(%v)",
			len(points))
	}
	if points[0].Step != 1 || points[0].Value != 0.5 {
		t.Errorf("wrong first point \n\thave(%+v)", points[0])
	}
	if points[1].Step != 2 || points[1].Value != 0.25 {
		t.Errorf("wrong second point \n\thave(%+v)", points[1])
	}

	tags := tracker.Tags()
	if len(tags) != 2 || tags[0] != "Distance" || tags[1] != "Loss" {
		t.Errorf("wrong tags \n\thave(%v)", tags)
	}
}

// TestTrackerRoundTrip ensures a persisted tracker restores with the
// same scalars.
func TestTrackerRoundTrip(t *testing.T) {
	tracker := NewTracker()
	for i := 1; i <= 5; i++ {
		tracker.AddScalar("Expected Q Values", i, float64(i)*1.5)
	}

	path := filepath.Join(t.TempDir(), "summary.bin")
	if err := tracker.Save(path); err != nil {
		t.Fatalf("could not save tracker: %v", err)
	}

	restored, err := LoadTracker(path)
	if err != nil {
		t.Fatalf("could not load tracker: %v", err)
	}

	points := restored.Scalar("Expected Q Values")
	if len(points) != 5 {
		t.Fatalf("wrong number of points \n\twant(5)\n\thave(%v)",
			len(points))
	}
	for i, p := range points {
		if p.Step != i+1 || p.Value != float64(i+1)*1.5 {
			t.Errorf("wrong point %v \n\thave(%+v)", i, p)
		}
	}
}

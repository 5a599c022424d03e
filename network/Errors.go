package network

import "fmt"

// ShapeError reports an input or output that does not match the
// network's declared shape contract.
type ShapeError struct {
	Op   string
	Want int
	Have int
}

// Error satisfies the error interface
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%v: invalid shape \n\twant(%v)\n\thave(%v)", e.Op,
		e.Want, e.Have)
}

// IsShapeMismatch returns whether or not an error reports data that
// violates a network's shape contract.
func IsShapeMismatch(err error) bool {
	_, ok := err.(*ShapeError)
	return ok
}

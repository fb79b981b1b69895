// Package util holds small helpers shared across go-gbplink packages.
package util

// CloneSlice returns a copy of src with length cloneSize. A cloneSize of 0
// copies the full source length.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

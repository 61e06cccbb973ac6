// Package util holds small generic helpers shared by the go-swi packages.
package util

// CloneSlice clones src into a fresh slice of length cloneSize.
// A cloneSize of 0 uses len(src). Used to detach caller-supplied frames
// and decoded replies from internal scratch buffers.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

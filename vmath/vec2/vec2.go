// Package vec2 holds surface coordinates.
package vec2

// T is a (u, v) pair.  Its range depends on the surface that produced it.
type T [2]float64

// Package envresolve determines the two inputs every later step shares: the
// mesh build tag and the location of the mesh source tree.
package envresolve

// Package t8eclass holds the constant tables describing each element
// class: how many vertices and faces it has, what class bounds each of
// its faces, how many children it splits into under refinement, and how
// many faces a top-level forest dimension may have (used by the ttf
// encoding in package t8cmesh).
//
// Everything in this package is a lookup table. There is no per-instance
// state and nothing here allocates.
package t8eclass

import (
	"fmt"
)

// Class identifies an element shape. The zero value is Vertex.
type Class uint8

const (
	Vertex Class = iota
	Line
	Quad
	Triangle
	Hex
	Tet
	Prism
	Pyramid

	numClasses
)

// NumClasses is the number of element classes in the registry.
const NumClasses = int(numClasses)

var classNames = [numClasses]string{
	"vertex", "line", "quad", "triangle", "hex", "tet", "prism", "pyramid",
}

// String implements fmt.Stringer.
func (c Class) String() string {
	if int(c) >= NumClasses {
		return fmt.Sprintf("Class(%d)", uint8(c))
	}
	return classNames[c]
}

// Valid reports whether c names a registered element class.
func (c Class) Valid() bool {
	return int(c) < NumClasses
}

// Dim is the topological dimension of each class.
var Dim = [numClasses]int{0, 1, 2, 2, 3, 3, 3, 3}

// NumFaces is the number of codimension-1 boundary facets of each class.
var NumFaces = [numClasses]int{0, 2, 4, 3, 6, 4, 5, 5}

// NumVertices is the number of vertices of each class.
var NumVertices = [numClasses]int{1, 2, 4, 3, 8, 4, 6, 5}

// NumChildren is C, the number of children a class splits into under one
// level of refinement — also the family size the adaptation engine looks
// for when deciding whether a run of siblings can be coarsened.
var NumChildren = [numClasses]int{0, 2, 4, 4, 8, 8, 8, 10}

// maxFacesPerClass bounds the second dimension of FaceClass and is large
// enough for every class's NumFaces.
const maxFacesPerClass = 6

// FaceClass[class][face] is the element class bounding that face, or -1
// if the class has fewer than face+1 faces.
var FaceClass = [numClasses][maxFacesPerClass]int{
	{-1, -1, -1, -1, -1, -1},
	{int(Vertex), int(Vertex), -1, -1, -1, -1},
	{int(Line), int(Line), int(Line), int(Line), -1, -1},
	{int(Line), int(Line), int(Line), -1, -1, -1},
	{int(Quad), int(Quad), int(Quad), int(Quad), int(Quad), int(Quad)},
	{int(Triangle), int(Triangle), int(Triangle), int(Triangle), -1, -1},
	{int(Quad), int(Quad), int(Quad), int(Triangle), int(Triangle), -1},
	{int(Triangle), int(Triangle), int(Triangle), int(Triangle), int(Quad), -1},
}

// BoundaryCount[from][to] is the number of codimension-1 descendants of
// class 'to' on the boundary of class 'from'.
var BoundaryCount = [numClasses][numClasses]int{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{2, 0, 0, 0, 0, 0, 0, 0},
	{4, 4, 0, 0, 0, 0, 0, 0},
	{3, 3, 0, 0, 0, 0, 0, 0},
	{8, 12, 6, 0, 0, 0, 0, 0},
	{4, 6, 0, 4, 0, 0, 0, 0},
	{6, 9, 3, 2, 0, 0, 0, 0},
	{5, 8, 1, 4, 0, 0, 0, 0},
}

// MaxFacesPerDim[dim] is F, the max face count over all classes of a
// given topological dimension; it is the multiplier the ttf encoding
// (package t8cmesh) uses to pack an orientation alongside a face index.
var MaxFacesPerDim = [4]int{0, 2, 4, 6}

// CountBoundary sums BoundaryCount[c][*] over classes at dimension >=
// minDim, the same computation t8_eclass_count_boundary performs for
// sizing a scheme's Boundary output.
func CountBoundary(c Class, minDim int) int {
	sum := 0
	for t := Vertex; int(t) < NumClasses; t++ {
		if Dim[t] >= minDim {
			sum += BoundaryCount[c][t]
		}
	}
	return sum
}

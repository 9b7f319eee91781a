// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package t8eclass_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/t8code-go/t8mesh/lib/t8eclass"
)

func TestStringAndValid(t *testing.T) {
	t.Parallel()
	cases := []struct {
		class t8eclass.Class
		name  string
	}{
		{t8eclass.Vertex, "vertex"},
		{t8eclass.Line, "line"},
		{t8eclass.Quad, "quad"},
		{t8eclass.Triangle, "triangle"},
		{t8eclass.Hex, "hex"},
		{t8eclass.Tet, "tet"},
		{t8eclass.Prism, "prism"},
		{t8eclass.Pyramid, "pyramid"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, c.class.Valid())
			assert.Equal(t, c.name, c.class.String())
		})
	}
	assert.False(t, t8eclass.Class(200).Valid())
	assert.Contains(t, t8eclass.Class(200).String(), "Class(200)")
}

func TestFaceClassesHaveLowerDimAndUnusedSlotsEmpty(t *testing.T) {
	t.Parallel()
	// Every class's faces must be bounded by a class of strictly lower
	// dimension, and every used slot in FaceClass must name a valid class.
	for class := t8eclass.Vertex; int(class) < t8eclass.NumClasses; class++ {
		for face := 0; face < t8eclass.NumFaces[class]; face++ {
			fc := t8eclass.FaceClass[class][face]
			if assert.GreaterOrEqual(t, fc, 0, "class %v face %d", class, face) {
				assert.Less(t, t8eclass.Dim[fc], t8eclass.Dim[class], "class %v face %d", class, face)
			}
		}
		for face := t8eclass.NumFaces[class]; face < len(t8eclass.FaceClass[class]); face++ {
			assert.Equal(t, -1, t8eclass.FaceClass[class][face], "class %v face %d should be unused", class, face)
		}
	}
}

func TestMaxFacesPerDimBoundsNumFaces(t *testing.T) {
	t.Parallel()
	for class := t8eclass.Vertex; int(class) < t8eclass.NumClasses; class++ {
		assert.LessOrEqual(t, t8eclass.NumFaces[class], t8eclass.MaxFacesPerDim[t8eclass.Dim[class]], "class %v", class)
	}
}

func TestCountBoundaryZeroMinDimIsFullBoundary(t *testing.T) {
	t.Parallel()
	// Hex is bounded by 8 vertices, 12 lines, 6 quads.
	assert.Equal(t, 8+12+6, t8eclass.CountBoundary(t8eclass.Hex, 0))
	// Restricting to facets only (dim 2) drops the vertices and lines.
	assert.Equal(t, 6, t8eclass.CountBoundary(t8eclass.Hex, 2))
}

// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package t8cube_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t8code-go/t8mesh/lib/t8eclass"
	"github.com/t8code-go/t8mesh/lib/t8scheme"
	"github.com/t8code-go/t8mesh/lib/t8scheme/t8cube"
)

func root(s t8scheme.Scheme) t8scheme.Element {
	e := s.New(1)[0]
	return e
}

func TestHexChildParentRoundTrip(t *testing.T) {
	t.Parallel()
	s := t8cube.NewHexScheme()
	r := root(s)
	assert.Equal(t, 0, s.Level(r))

	children := s.New(8)
	s.Children(r, children)
	for k, c := range children {
		assert.Equal(t, 1, s.Level(c))
		assert.Equal(t, k, s.ChildID(c))

		parent := s.New(1)[0]
		s.Parent(c, parent)
		assert.Equal(t, r, parent)
	}
	require.True(t, s.IsFamily(children))
}

func TestHexIsFamilyRejectsOutOfOrder(t *testing.T) {
	t.Parallel()
	s := t8cube.NewHexScheme()
	r := root(s)
	children := s.New(8)
	s.Children(r, children)
	children[0], children[1] = children[1], children[0]
	assert.False(t, s.IsFamily(children))
}

func TestQuadSiblingMatchesChildren(t *testing.T) {
	t.Parallel()
	s := t8cube.NewQuadScheme()
	r := root(s)
	children := s.New(4)
	s.Children(r, children)

	for k := range children {
		for j := range children {
			sib := s.New(1)[0]
			s.Sibling(children[k], j, sib)
			assert.Equal(t, children[j], sib, "sibling(child %d, %d)", k, j)
		}
	}
}

func TestLineLinearIDOrdersByMorton(t *testing.T) {
	t.Parallel()
	s := t8cube.NewLineScheme()
	r := root(s)
	depth := 3
	elems := []t8scheme.Element{r}
	for lvl := 0; lvl < depth; lvl++ {
		var next []t8scheme.Element
		for _, e := range elems {
			children := s.New(2)
			s.Children(e, children)
			next = append(next, children...)
		}
		elems = next
	}
	require.Len(t, elems, 1<<uint(depth))
	for i, e := range elems {
		assert.Equal(t, uint64(i), s.LinearID(e, depth))
	}
}

func TestHexNCAFindsCommonAncestor(t *testing.T) {
	t.Parallel()
	s := t8cube.NewHexScheme()
	r := root(s)
	children := s.New(8)
	s.Children(r, children)

	grandchildrenA := s.New(8)
	s.Children(children[0], grandchildrenA)
	grandchildrenB := s.New(8)
	s.Children(children[1], grandchildrenB)

	nca := s.New(1)[0]
	s.NCA(grandchildrenA[3], grandchildrenB[5], nca)
	assert.Equal(t, r, nca)

	s.NCA(grandchildrenA[3], grandchildrenA[5], nca)
	assert.Equal(t, children[0], nca)
}

func TestHexBoundaryCountsMatchRegistry(t *testing.T) {
	t.Parallel()
	s := t8cube.NewHexScheme()
	r := root(s)
	want := t8eclass.CountBoundary(t8eclass.Hex, 0)
	out := make([]t8scheme.Element, want)
	n := s.Boundary(r, 0, out)
	assert.Equal(t, want, n)

	wantFacets := t8eclass.CountBoundary(t8eclass.Hex, 2)
	outFacets := make([]t8scheme.Element, wantFacets)
	nFacets := s.Boundary(r, 2, outFacets)
	assert.Equal(t, wantFacets, nFacets)
	for _, facet := range outFacets {
		assert.Len(t, facet, 1+4*2)
	}
}

func TestParentPanicsAtRoot(t *testing.T) {
	t.Parallel()
	s := t8cube.NewHexScheme()
	r := root(s)
	out := s.New(1)[0]
	assert.Panics(t, func() { s.Parent(r, out) })
}

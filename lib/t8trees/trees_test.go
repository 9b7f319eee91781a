// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package t8trees_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t8code-go/t8mesh/lib/t8contract"
	"github.com/t8code-go/t8mesh/lib/t8eclass"
	"github.com/t8code-go/t8mesh/lib/t8trees"
)

// buildTwoQuads builds a single-rank, two-tree, no-ghost part where
// each quad has one attribute, and returns it already finished.
func buildTwoQuads(t *testing.T) *t8trees.Trees {
	t.Helper()
	tr := t8trees.Init(1, 2, 0)
	tr.StartPart(0, 0, 2, 0, 0, true)
	tr.AddTree(0, 0, t8eclass.Quad)
	tr.AddTree(1, 0, t8eclass.Quad)
	tr.InitAttributes(0, 1, 4)
	tr.InitAttributes(1, 1, 8)
	tr.FinishPart(0)
	tr.AddAttribute(0, 0, 0, 7, 1, []byte{1, 2, 3, 4})
	tr.AddAttribute(0, 1, 0, 7, 1, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	return tr
}

func TestFaceNeighborRoundTrip(t *testing.T) {
	t.Parallel()
	tr := buildTwoQuads(t)

	tr.SetTreeFaceNeighbor(0, 1, 1, 3)
	tr.SetTreeFaceNeighbor(1, 0, 0, 1)

	_, nbrs0 := tr.GetTreeExt(0)
	require.Len(t, nbrs0, 4)
	assert.Equal(t, int64(1), nbrs0[1].Neighbor)
	assert.Equal(t, byte(3), nbrs0[1].TTF)

	_, nbrs1 := tr.GetTreeExt(1)
	assert.Equal(t, int64(0), nbrs1[0].Neighbor)
	assert.Equal(t, byte(1), nbrs1[0].TTF)
}

func TestGetAttributeFindsAndMisses(t *testing.T) {
	t.Parallel()
	tr := buildTwoQuads(t)

	data, err := tr.GetAttribute(0, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	data, err = tr.GetAttribute(1, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, data)

	_, err = tr.GetAttribute(0, 7, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, t8trees.ErrAttributeNotFound))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestAttributesSortedAcrossOutOfOrderInsertion(t *testing.T) {
	t.Parallel()
	tr := t8trees.Init(1, 1, 0)
	tr.StartPart(0, 0, 1, 0, 0, true)
	tr.AddTree(0, 0, t8eclass.Vertex)
	tr.InitAttributes(0, 3, 3)
	tr.FinishPart(0)
	tr.AddAttribute(0, 0, 0, 5, 2, []byte{0xAA})
	tr.AddAttribute(0, 0, 1, 5, 1, []byte{0xBB})
	tr.AddAttribute(0, 0, 2, 3, 9, []byte{0xCC})

	got, err := tr.GetAttribute(0, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xBB}, got)

	got, err = tr.GetAttribute(0, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA}, got)

	got, err = tr.GetAttribute(0, 3, 9)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCC}, got)
}

func TestAddTreeDuplicateSlotPanics(t *testing.T) {
	t.Parallel()
	tr := t8trees.Init(1, 1, 0)
	tr.StartPart(0, 0, 1, 0, 0, true)
	tr.AddTree(0, 0, t8eclass.Hex)
	var err error
	func() {
		defer t8contract.Recover(&err)
		tr.AddTree(0, 0, t8eclass.Hex)
	}()
	require.Error(t, err)
}

func TestCloneIsByteIdenticalAndIndependent(t *testing.T) {
	t.Parallel()
	tr := buildTwoQuads(t)
	clone := tr.Clone()
	require.True(t, tr.Equal(clone), "expected byte-identical clone:\n%s", spew.Sdump(tr, clone))

	clone.SetTreeFaceNeighbor(0, 0, 1, 0)
	assert.False(t, tr.Equal(clone), "mutating the clone must not affect the original")
}

func TestSizeSumsAllParts(t *testing.T) {
	t.Parallel()
	tr := t8trees.Init(2, 2, 0)
	tr.StartPart(0, 0, 1, 0, 0, true)
	tr.AddTree(0, 0, t8eclass.Line)
	tr.InitAttributes(0, 0, 0)
	tr.FinishPart(0)

	tr.StartPart(1, 1, 1, 0, 0, true)
	tr.AddTree(1, 1, t8eclass.Hex)
	tr.InitAttributes(1, 0, 0)
	tr.FinishPart(1)

	assert.Greater(t, tr.Size(), 0)

	one := t8trees.Init(1, 1, 0)
	one.StartPart(0, 0, 1, 0, 0, true)
	one.AddTree(0, 0, t8eclass.Line)
	one.InitAttributes(0, 0, 0)
	one.FinishPart(0)

	other := t8trees.Init(1, 2, 0)
	other.StartPart(0, 1, 1, 0, 0, true)
	other.AddTree(1, 0, t8eclass.Hex)
	other.InitAttributes(1, 0, 0)
	other.FinishPart(0)

	assert.NotEqual(t, one.Size(), other.Size(), "a line and a hex tree record should not pack to the same size")
	assert.Equal(t, one.Size()+other.Size(), tr.Size())
}

func TestGhostFaceNeighborUsesGlobalIndices(t *testing.T) {
	t.Parallel()
	tr := t8trees.Init(1, 1, 1)
	tr.StartPart(0, 0, 1, 0, 1, true)
	tr.AddTree(0, 0, t8eclass.Quad)
	tr.AddGhost(0, 42, 0, t8eclass.Quad)
	tr.InitAttributes(0, 0, 0)
	tr.FinishPart(0)

	tr.SetGhostFaceNeighbor(0, 2, 42, 9)
	ghost, nbrs := tr.GetGhostExt(0)
	assert.Equal(t, t8trees.GlobalID(42), ghost.Global)
	require.Len(t, nbrs, 4)
	assert.Equal(t, int64(42), nbrs[2].Neighbor)
	assert.Equal(t, byte(9), nbrs[2].TTF)
}

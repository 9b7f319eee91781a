package t8forest

import (
	"context"

	"github.com/datawire/dlib/dlog"

	"github.com/t8code-go/t8mesh/lib/t8eclass"
	"github.com/t8code-go/t8mesh/lib/t8scheme"
	"github.com/t8code-go/t8mesh/lib/t8trees"
)

// adaptTree runs one tree's adaptation pass: walk src with a cursor,
// peek a family-sized window, ask the predicate, and commit a keep,
// coarsen, or refine into out. recursive enables recursive coarsening
// of freshly-committed tails and recursive re-testing of refined
// children, per the contract Predicate documents.
func adaptTree(ctx context.Context, scheme t8scheme.Scheme, class t8eclass.Class, src []t8scheme.Element, predicate Predicate, replace Replace, recursive bool, forest *Forest, treeL t8trees.LocalID) []t8scheme.Element {
	c := t8eclass.NumChildren[class]
	out := make([]t8scheme.Element, 0, len(src))
	elCoarsen := 0

	i := 0
	for i < len(src) {
		n := 1
		var head []t8scheme.Element
		if c > 0 && i+c <= len(src) && scheme.IsFamily(src[i:i+c]) {
			n = c
			head = src[i : i+c]
		} else {
			head = src[i : i+1]
		}

		verdict := predicate(forest, treeL, n, head)
		switch {
		case n == c && verdict < 0:
			parent := scheme.New(1)[0]
			scheme.Parent(head[0], parent)
			if replace != nil {
				replace(forest, treeL, []t8scheme.Element{parent}, append([]t8scheme.Element(nil), head...))
			}
			out = append(out, parent)
			i += c
			if recursive {
				out, elCoarsen = maybeRecursiveCoarsen(scheme, class, out, elCoarsen, predicate, replace, forest, treeL)
			}
		case verdict > 0:
			children := scheme.New(c)
			scheme.Children(head[0], children)
			if replace != nil {
				replace(forest, treeL, children, head[:1])
			}
			if recursive {
				out, elCoarsen = recursiveRefine(scheme, class, out, children, elCoarsen, predicate, replace, forest, treeL)
			} else {
				out = append(out, children...)
				elCoarsen = len(out)
			}
			i++
		default:
			out = append(out, head[0])
			i++
			if recursive {
				out, elCoarsen = maybeRecursiveCoarsen(scheme, class, out, elCoarsen, predicate, replace, forest, treeL)
			}
		}
	}
	if len(out) != len(src) {
		dlog.Tracef(ctx, "t8forest: adapt: tree %d: %d -> %d elements", treeL, len(src), len(out))
	}
	return out
}

// maybeRecursiveCoarsen repeatedly tests out's tail window against the
// predicate, coarsening as long as the tail is a family at or after
// elCoarsen, ends at child-id C-1, and the predicate still says
// coarsen.
func maybeRecursiveCoarsen(scheme t8scheme.Scheme, class t8eclass.Class, out []t8scheme.Element, elCoarsen int, predicate Predicate, replace Replace, forest *Forest, treeL t8trees.LocalID) ([]t8scheme.Element, int) {
	c := t8eclass.NumChildren[class]
	for {
		if c == 0 || len(out) < c || len(out)-c < elCoarsen {
			return out, elCoarsen
		}
		last := out[len(out)-1]
		if scheme.ChildID(last) != c-1 {
			return out, elCoarsen
		}
		window := out[len(out)-c:]
		if !scheme.IsFamily(window) {
			return out, elCoarsen
		}
		if predicate(forest, treeL, c, window) >= 0 {
			return out, elCoarsen
		}
		parent := scheme.New(1)[0]
		scheme.Parent(window[0], parent)
		if replace != nil {
			replace(forest, treeL, []t8scheme.Element{parent}, append([]t8scheme.Element(nil), window...))
		}
		out = append(out[:len(out)-c], parent)
	}
}

// recursiveRefine re-tests each of a freshly-refined family with n=1,
// refining again (depth-first, child-id order) wherever the predicate
// still says refine, and committing the rest into out. elCoarsen is
// bumped past every element committed here: a family this function just
// produced by refinement must not be coarsened away again in the same
// pass, the same anti-oscillation rule the non-recursive refine branch
// enforces by setting elCoarsen = len(out) right after it appends.
func recursiveRefine(scheme t8scheme.Scheme, class t8eclass.Class, out []t8scheme.Element, children []t8scheme.Element, elCoarsen int, predicate Predicate, replace Replace, forest *Forest, treeL t8trees.LocalID) ([]t8scheme.Element, int) {
	c := t8eclass.NumChildren[class]
	stack := reversed(children)

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if predicate(forest, treeL, 1, []t8scheme.Element{e}) > 0 {
			grandchildren := scheme.New(c)
			scheme.Children(e, grandchildren)
			if replace != nil {
				replace(forest, treeL, grandchildren, []t8scheme.Element{e})
			}
			stack = append(stack, reversed(grandchildren)...)
			continue
		}
		out = append(out, e)
		elCoarsen = len(out)
	}
	return out, elCoarsen
}

func reversed(in []t8scheme.Element) []t8scheme.Element {
	out := make([]t8scheme.Element, len(in))
	for i, e := range in {
		out[len(in)-1-i] = e
	}
	return out
}

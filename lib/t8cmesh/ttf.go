package t8cmesh

import "github.com/t8code-go/t8mesh/lib/t8eclass"

// EncodeTTF packs a face index and an orientation into the single
// "tree-to-face" byte stored alongside a face-neighbor slot:
// ttf = orient*F + face, where F is the largest face count among
// classes of the given topological dimension.
func EncodeTTF(dim, face, orient int) byte {
	f := t8eclass.MaxFacesPerDim[dim]
	return byte(orient*f + face)
}

// DecodeTTF is EncodeTTF's inverse.
func DecodeTTF(dim int, ttf byte) (face, orient int) {
	f := t8eclass.MaxFacesPerDim[dim]
	return int(ttf) % f, int(ttf) / f
}

package match

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/skeye/internal/geom"
)

// Match is the result of a template search.
type Match struct {
	// Spot is the view of the image where the template was found. It has the
	// template's shape unless Truncated is set.
	Spot *mat.Dense

	// TopLeft is the offset of Spot within the image.
	TopLeft geom.Point

	// Confidence is the cosine similarity between template and Spot, in
	// [-1, 1]; well-posed matches land in [0, 1].
	Confidence float64

	// Truncated reports that the best offset placed the template partly outside
	// the image, so Spot is smaller than the template.
	Truncated bool
}

// Region returns the area of the image covered by Spot.
func (m *Match) Region() geom.ROI {
	return geom.At(m.TopLeft, geom.ShapeOf(m.Spot))
}

// Search finds the offset at which template best correlates with image.
// Ties on the correlation peak go to the first offset in row-major order.
func Search(image *mat.Dense, template mat.Matrix) (*Match, error) {
	surface, err := Correlate(image, template)
	if err != nil {
		return nil, err
	}

	shape := geom.ShapeOf(surface)
	peak := floats.MaxIdx(surface.RawMatrix().Data)
	topLeft := geom.Point{Row: peak / shape.Cols, Col: peak % shape.Cols}

	ts := geom.ShapeOf(template)
	spot, used := geom.CropClip(image, geom.At(topLeft, ts))

	return &Match{
		Spot:       spot,
		TopLeft:    topLeft,
		Confidence: Cosine(template, spot),
		Truncated:  used.Shape() != ts,
	}, nil
}

// Cosine returns the cosine of the angle between a and b seen as vectors,
// dot(a, b) / (|a| |b|), over the top-left shape both share. It returns 0 when
// either vector has zero length.
func Cosine(a, b mat.Matrix) float64 {
	sa, sb := geom.ShapeOf(a), geom.ShapeOf(b)
	common := geom.Shape{Rows: min(sa.Rows, sb.Rows), Cols: min(sa.Cols, sb.Cols)}
	if common.Empty() {
		return 0
	}

	va := flatten(a, common)
	vb := flatten(b, common)
	na, nb := floats.Norm(va, 2), floats.Norm(vb, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(va, vb) / (na * nb)
}

// flatten copies the top-left shape of m into a row-major slice.
func flatten(m mat.Matrix, shape geom.Shape) []float64 {
	out := make([]float64, 0, shape.Rows*shape.Cols)
	for r := 0; r < shape.Rows; r++ {
		for c := 0; c < shape.Cols; c++ {
			out = append(out, m.At(r, c))
		}
	}
	return out
}

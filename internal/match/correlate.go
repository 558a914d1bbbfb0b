package match

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/skeye/internal/geom"
)

// ErrSizeMismatch is returned when a template does not fit inside the image it
// is searched in, or either array is empty.
var ErrSizeMismatch = errors.New("template does not fit image")

// SizeError describes a size mismatch between an image and a template.
type SizeError struct {
	Image    geom.Shape
	Template geom.Shape
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("template %v does not fit image %v", e.Template, e.Image)
}

// Unwrap lets errors.Is match ErrSizeMismatch.
func (e *SizeError) Unwrap() error { return ErrSizeMismatch }

func checkSizes(image, template mat.Matrix) (geom.Shape, geom.Shape, error) {
	is, ts := geom.ShapeOf(image), geom.ShapeOf(template)
	if is.Empty() || ts.Empty() || !ts.Fits(is) {
		return is, ts, &SizeError{Image: is, Template: ts}
	}
	return is, ts, nil
}

// Correlate returns the cross-correlation surface of image and template, with
// both arrays mean-subtracted first. The surface has the image's shape; the
// value at (r, c) scores the template placed with its top-left corner at
// (r, c), wrapping around the image edges.
func Correlate(image, template mat.Matrix) (*mat.Dense, error) {
	shape, _, err := checkSizes(image, template)
	if err != nil {
		return nil, err
	}

	p := newPlan(shape)
	si := p.forward(image)
	sf := p.forward(template)

	for i, v := range sf {
		re, im := real(v), imag(v)
		si[i] *= complex(re, -im)
	}

	return p.inverse(si), nil
}

// plan holds the 1-D transforms used for a 2-D real transform of a fixed shape.
// Rows use a real FFT, keeping cols/2+1 coefficients; columns of that half
// spectrum use a complex FFT.
type plan struct {
	shape geom.Shape
	half  int
	rows  *fourier.FFT
	cols  *fourier.CmplxFFT
}

func newPlan(shape geom.Shape) *plan {
	return &plan{
		shape: shape,
		half:  shape.Cols/2 + 1,
		rows:  fourier.NewFFT(shape.Cols),
		cols:  fourier.NewCmplxFFT(shape.Rows),
	}
}

// forward returns the half spectrum of m minus its mean, zero-padded to the
// plan shape, as a row-major rows x half slice.
func (p *plan) forward(m mat.Matrix) []complex128 {
	r, c := m.Dims()
	mean := mat.Sum(m) / float64(r*c)

	spec := make([]complex128, p.shape.Rows*p.half)
	seq := make([]float64, p.shape.Cols)
	for i := 0; i < p.shape.Rows; i++ {
		for j := range seq {
			seq[j] = 0
		}
		if i < r {
			for j := 0; j < c; j++ {
				seq[j] = m.At(i, j) - mean
			}
		}
		p.rows.Coefficients(spec[i*p.half:(i+1)*p.half], seq)
	}

	p.eachColumn(spec, p.cols.Coefficients)
	return spec
}

// inverse transforms a half spectrum back to a real surface, scaled by
// 1/(rows*cols).
func (p *plan) inverse(spec []complex128) *mat.Dense {
	p.eachColumn(spec, p.cols.Sequence)

	n := float64(p.shape.Rows * p.shape.Cols)
	out := make([]float64, p.shape.Rows*p.shape.Cols)
	for i := 0; i < p.shape.Rows; i++ {
		row := out[i*p.shape.Cols : (i+1)*p.shape.Cols]
		p.rows.Sequence(row, spec[i*p.half:(i+1)*p.half])
		for j := range row {
			row[j] /= n
		}
	}
	return mat.NewDense(p.shape.Rows, p.shape.Cols, out)
}

// eachColumn applies a complex transform to every column of the half spectrum.
func (p *plan) eachColumn(spec []complex128, transform func(dst, src []complex128) []complex128) {
	src := make([]complex128, p.shape.Rows)
	dst := make([]complex128, p.shape.Rows)
	for j := 0; j < p.half; j++ {
		for i := range src {
			src[i] = spec[i*p.half+j]
		}
		transform(dst, src)
		for i, v := range dst {
			spec[i*p.half+j] = v
		}
	}
}

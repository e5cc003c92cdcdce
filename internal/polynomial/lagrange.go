package polynomial

import (
	"strconv"

	"github.com/mrz1836/multisecret/internal/field"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// Point is one evaluation (ID_b, B_b) of a polynomial.
type Point struct {
	X field.Element
	Y field.Element
}

// Interpolate recovers f(0) from the points:
//
//	f(0) = Σ_b y_b ⋅ Π_{r≠b} x_r ⋅ (x_r − x_b)⁻¹
//
// Terms are summed in input order. Two points sharing an x coordinate make a
// denominator vanish and yield ErrNoInverse.
func Interpolate(f *field.Field, points []Point) (field.Element, error) {
	if len(points) == 0 {
		return field.Element{}, mserr.WithDetails(mserr.ErrReconstruction, map[string]string{
			"reason": "no points to interpolate",
		})
	}

	xs := make([]field.Element, len(points))
	for b, pt := range points {
		xs[b] = pt.X
	}
	coefficients, err := LagrangeCoefficients(f, xs)
	if err != nil {
		return field.Element{}, err
	}

	secret := f.Zero()
	for b, pt := range points {
		secret = f.Add(secret, f.Mul(pt.Y, coefficients[b]))
	}
	return secret, nil
}

// LagrangeCoefficients returns lⱼ(0) for every x in the interpolation domain:
//
//	lⱼ(0) = Π_{r≠j} x_r ⋅ (x_r − x_j)⁻¹
func LagrangeCoefficients(f *field.Field, xs []field.Element) ([]field.Element, error) {
	coefficients := make([]field.Element, len(xs))
	for j, xJ := range xs {
		l := f.One()
		for r, xR := range xs {
			if r == j {
				continue
			}
			inv, err := f.Inverse(f.Sub(xR, xJ))
			if err != nil {
				return nil, mserr.WithDetails(err, map[string]string{
					"reason": "duplicate interpolation point",
					"points": strconv.Itoa(j) + "," + strconv.Itoa(r),
				})
			}
			l = f.Mul(l, f.Mul(xR, inv))
		}
		coefficients[j] = l
	}
	return coefficients, nil
}

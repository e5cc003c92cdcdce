// Package polynomial implements Shamir polynomials over a prime field and
// Lagrange reconstruction of their constant term.
package polynomial

import (
	"fmt"
	"io"

	"github.com/mrz1836/multisecret/internal/field"
)

// Polynomial represents f(X) = a₀ + a₁⋅X + … + aₜ⋅Xᵗ over ℤₚ.
type Polynomial struct {
	field        *field.Field
	coefficients []field.Element
}

// GenerateCoefficients samples degree random field elements from r.
func GenerateCoefficients(r io.Reader, f *field.Field, degree int) ([]field.Element, error) {
	if degree < 0 {
		return nil, fmt.Errorf("polynomial: negative degree %d", degree)
	}
	coefficients := make([]field.Element, degree)
	for d := range coefficients {
		c, err := f.Random(r)
		if err != nil {
			return nil, fmt.Errorf("failed to generate random coefficients: %w", err)
		}
		coefficients[d] = c
	}
	return coefficients, nil
}

// New returns f(X) = constant + coefficients[0]⋅X + coefficients[1]⋅X² + …
func New(f *field.Field, constant field.Element, coefficients []field.Element) *Polynomial {
	all := make([]field.Element, 0, len(coefficients)+1)
	all = append(all, constant)
	all = append(all, coefficients...)
	return &Polynomial{field: f, coefficients: all}
}

// Random returns a polynomial of the given degree with a fixed constant term.
func Random(r io.Reader, f *field.Field, constant field.Element, degree int) (*Polynomial, error) {
	coefficients, err := GenerateCoefficients(r, f, degree)
	if err != nil {
		return nil, err
	}
	return New(f, constant, coefficients), nil
}

// Degree is the highest power of the polynomial.
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Evaluate returns f(x) using Horner's method.
func (p *Polynomial) Evaluate(x field.Element) field.Element {
	result := p.field.Zero()
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		// bₙ₋₁ = bₙ⋅x + aₙ₋₁
		result = p.field.Add(p.field.Mul(result, x), p.coefficients[i])
	}
	return result
}

package ot

import (
	"github.com/pkg/errors"

	"github.com/costela/miqps"
)

type Option func(*Engine) error

func WithLogger(logger miqps.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			return errors.New("nil logger")
		}
		e.logger = logger

		return nil
	}
}

// WithTolerance sets the simplex optimality tolerance.
func WithTolerance(tol float64) Option {
	return func(e *Engine) error {
		if tol <= 0 {
			return errors.Errorf("tolerance must be positive, got %g", tol)
		}
		e.tol = tol

		return nil
	}
}

// WithIntegerTolerance sets how far from an integer a value of an integer
// variable may be.
func WithIntegerTolerance(tol float64) Option {
	return func(e *Engine) error {
		if tol <= 0 || tol >= 0.5 {
			return errors.Errorf("integer tolerance must be in (0, 0.5), got %g", tol)
		}
		e.intTol = tol

		return nil
	}
}

// WithMaxNodes limits the number of branch and bound nodes.
func WithMaxNodes(n int) Option {
	return func(e *Engine) error {
		if n <= 0 {
			return errors.Errorf("node limit must be positive, got %d", n)
		}
		e.maxNodes = n

		return nil
	}
}

package miqps

import "github.com/pkg/errors"

// Fatal error classes. Returned errors wrap one of these, so callers can
// test with errors.Is and read the details from the message.
var (
	// ErrStructural reports a missing required field or a dimension mismatch.
	ErrStructural = errors.New("malformed problem")
	// ErrInvalidAlgorithm reports an unknown algorithm name or legacy code.
	ErrInvalidAlgorithm = errors.New("invalid algorithm")
	// ErrSolverUnavailable reports an explicitly requested backend that is
	// not available.
	ErrSolverUnavailable = errors.New("solver not available")
	// ErrNoSolver reports that automatic selection found no eligible backend.
	ErrNoSolver = errors.New("no solver available")
	// ErrUnsupported reports a problem feature the chosen backend cannot
	// represent, such as semi-continuous variables on GLPK.
	ErrUnsupported = errors.New("unsupported by backend")
)

func structuralf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrStructural, format, args...)
}

func unsupportedf(b Backend, format string, args ...interface{}) error {
	return errors.Wrapf(ErrUnsupported, "%s: "+format, append([]interface{}{b}, args...)...)
}

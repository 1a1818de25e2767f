package miqps

// Probe reports whether a backend can be used right now, e.g. whether its
// license could be checked out.
type Probe interface {
	Available(b Backend) bool
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(b Backend) bool

func (f ProbeFunc) Available(b Backend) bool {
	return f(b)
}

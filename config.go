package miqps

// Options configures a single solve.
type Options struct {
	// Alg selects the backend; the zero value selects automatically.
	Alg Algorithm
	// Verbose is 0 (silent), 1 (summary) or 2 (detailed). It is logged to
	// the solver's Logger and forwarded to the backend's own output option.
	Verbose int
	// SkipPrices disables the price computation stage for mixed-integer
	// problems, leaving all multipliers zero.
	SkipPrices bool
	// PriceStageWarnTol is the relative mismatch in objective value or
	// solution above which the price computation stage adds a warning.
	// Zero means 1e-7.
	PriceStageWarnTol float64
	// Backend holds passthrough options per backend: CPLEXParams,
	// GLPKParams, GurobiParams, MosekParams or OTOptions (a plain
	// map[string]interface{} is accepted too). Only the chosen backend's
	// entry is read.
	Backend map[Backend]interface{}
}

const defaultPriceStageWarnTol = 1e-7

func (o Options) warnTol() float64 {
	if o.PriceStageWarnTol > 0 {
		return o.PriceStageWarnTol
	}
	return defaultPriceStageWarnTol
}

// passthrough returns a copy of the options given for backend b, so that
// adapters can add defaults without touching the caller's map.
func (o *Options) passthrough(b Backend) map[string]interface{} {
	out := make(map[string]interface{})

	var src map[string]interface{}
	switch v := o.Backend[b].(type) {
	case CPLEXParams:
		src = v
	case GLPKParams:
		src = v
	case GurobiParams:
		src = v
	case MosekParams:
		src = v
	case OTOptions:
		src = v
	case map[string]interface{}:
		src = v
	}
	for k, v := range src {
		out[k] = v
	}

	return out
}

// setDefault sets key only if the caller did not.
func setDefault(params map[string]interface{}, key string, value interface{}) {
	if _, ok := params[key]; !ok {
		params[key] = value
	}
}

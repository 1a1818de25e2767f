package glpk

// #include <glpk.h>
import "C"

import (
	"github.com/pkg/errors"

	"github.com/costela/miqps"
)

// params are the recognized entries of miqps.GLPKParams:
//
//	msglev    0 off, 1 errors, 2 normal, 3 all
//	presolve  bool
//	meth      "primal", "dual" or "dualp"
//	it_lim    simplex iteration limit
//	tm_lim    time limit in milliseconds
//	mip_gap   relative MIP gap tolerance
type params struct {
	msglev   C.int
	presolve bool
	meth     C.int
	itLim    C.int
	tmLim    C.int
	mipGap   float64
}

var methods = map[string]C.int{
	"primal": C.GLP_PRIMAL,
	"dual":   C.GLP_DUAL,
	"dualp":  C.GLP_DUALP,
}

func readParams(in miqps.GLPKParams, presolve bool) (params, error) {
	prm := params{
		msglev:   C.GLP_MSG_OFF,
		presolve: presolve,
		meth:     C.GLP_PRIMAL,
		itLim:    -1,
		tmLim:    -1,
		mipGap:   -1,
	}

	for key, v := range in {
		var err error
		switch key {
		case "msglev":
			var lev int
			if lev, err = intParam(key, v); err == nil {
				if lev < 0 || lev > 3 {
					err = errors.Errorf("glpk: msglev must be within 0..3, got %d", lev)
				} else {
					prm.msglev = C.int(lev)
				}
			}
		case "presolve":
			on, ok := v.(bool)
			if !ok {
				err = errors.Errorf("glpk: presolve must be a bool, got %T", v)
			} else {
				prm.presolve = on
			}
		case "meth":
			name, _ := v.(string)
			meth, ok := methods[name]
			if !ok {
				err = errors.Errorf("glpk: unknown simplex method %v", v)
			} else {
				prm.meth = meth
			}
		case "it_lim":
			var lim int
			if lim, err = intParam(key, v); err == nil {
				prm.itLim = C.int(lim)
			}
		case "tm_lim":
			var lim int
			if lim, err = intParam(key, v); err == nil {
				prm.tmLim = C.int(lim)
			}
		case "mip_gap":
			gap, ok := v.(float64)
			if !ok {
				err = errors.Errorf("glpk: mip_gap must be a float64, got %T", v)
			} else {
				prm.mipGap = gap
			}
		default:
			err = errors.Errorf("glpk: unknown parameter %q", key)
		}
		if err != nil {
			return prm, err
		}
	}

	return prm, nil
}

func intParam(key string, v interface{}) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.Errorf("glpk: %s must be a number, got %T", key, v)
	}
}

func (prm params) applySimplex(parm *C.glp_smcp) {
	parm.msg_lev = prm.msglev
	parm.meth = prm.meth
	if prm.presolve {
		parm.presolve = C.GLP_ON
	} else {
		parm.presolve = C.GLP_OFF
	}
	if prm.itLim >= 0 {
		parm.it_lim = prm.itLim
	}
	if prm.tmLim >= 0 {
		parm.tm_lim = prm.tmLim
	}
}

func (prm params) applyBranchCut(parm *C.glp_iocp) {
	parm.msg_lev = prm.msglev
	if prm.presolve {
		parm.presolve = C.GLP_ON
	} else {
		parm.presolve = C.GLP_OFF
	}
	if prm.tmLim >= 0 {
		parm.tm_lim = prm.tmLim
	}
	if prm.mipGap >= 0 {
		parm.mip_gap = C.double(prm.mipGap)
	}
}

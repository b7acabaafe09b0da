package powerflow

import (
	"math"
	"math/cmplx"
)

// BusVoltage is a solved bus voltage.
type BusVoltage struct {
	VmPU     float64 `json:"vm_pu"`
	VaDegree float64 `json:"va_degree"`
}

// BranchFlow is the solved flow through a line or transformer. From is the
// line's from bus or the transformer's hv bus.
type BranchFlow struct {
	PFromMW        float64 `json:"p_from_mw"`
	QFromMVAR      float64 `json:"q_from_mvar"`
	PToMW          float64 `json:"p_to_mw"`
	QToMVAR        float64 `json:"q_to_mvar"`
	PLossMW        float64 `json:"pl_mw"`
	QLossMVAR      float64 `json:"ql_mvar"`
	IFromKA        float64 `json:"i_from_ka"`
	IToKA          float64 `json:"i_to_ka"`
	LoadingPercent float64 `json:"loading_percent"`
}

// ConvergenceResult is the outcome of Resolver.Solve. On non-convergence only
// Converged and IsolatedBuses are set.
type ConvergenceResult struct {
	Converged        bool               `json:"converged"`
	Method           Algorithm          `json:"method,omitempty"`
	Iterations       int                `json:"iterations,omitempty"`
	BusVoltages      map[int]BusVoltage `json:"bus_voltages,omitempty"`
	LineFlows        map[int]BranchFlow `json:"line_flows,omitempty"`
	TransformerFlows map[int]BranchFlow `json:"trafo_flows,omitempty"`
	SlackPMW         float64            `json:"slack_p_mw,omitempty"`
	SlackQMVAR       float64            `json:"slack_q_mvar,omitempty"`
	IsolatedBuses    []int              `json:"isolated_buses,omitempty"`
}

func (c *solverCase) result(v []complex128, method Algorithm, iterations int) ConvergenceResult {
	res := ConvergenceResult{
		Converged:        true,
		Method:           method,
		Iterations:       iterations,
		BusVoltages:      make(map[int]BusVoltage),
		LineFlows:        make(map[int]BranchFlow),
		TransformerFlows: make(map[int]BranchFlow),
		IsolatedBuses:    c.isolated,
	}

	for bus, n := range c.busNode {
		if n < 0 {
			continue
		}
		res.BusVoltages[bus] = BusVoltage{
			VmPU:     cmplx.Abs(v[n]),
			VaDegree: cmplx.Phase(v[n]) * 180 / math.Pi,
		}
	}

	base := complex(c.baseMVA, 0)
	for _, br := range c.branches {
		vf, vt := v[br.f], v[br.t]
		iff := br.yff*vf + br.yft*vt
		it := br.ytf*vf + br.ytt*vt
		sf := vf * cmplx.Conj(iff) * base
		st := vt * cmplx.Conj(it) * base

		flow := BranchFlow{
			PFromMW:   real(sf),
			QFromMVAR: imag(sf),
			PToMW:     real(st),
			QToMVAR:   imag(st),
			PLossMW:   real(sf + st),
			QLossMVAR: imag(sf + st),
			IFromKA:   currentKA(cmplx.Abs(iff), c.baseMVA, br.vnFromKV),
			IToKA:     currentKA(cmplx.Abs(it), c.baseMVA, br.vnToKV),
		}

		switch br.kind {
		case lineBranch:
			if br.ratingKA > 0 {
				flow.LoadingPercent = math.Max(flow.IFromKA, flow.IToKA) / br.ratingKA * 100
			}
			res.LineFlows[br.id] = flow
		case trafoBranch:
			if br.ratingMV > 0 {
				flow.LoadingPercent = math.Max(cmplx.Abs(sf), cmplx.Abs(st)) / br.ratingMV * 100
			}
			res.TransformerFlows[br.id] = flow
		}
	}

	sl := v[c.slack] * cmplx.Conj(c.y.mulVec(v)[c.slack])
	gen := (sl - c.sbus[c.slack]) * base
	res.SlackPMW, res.SlackQMVAR = real(gen), imag(gen)
	return res
}

func currentKA(iPU, baseMVA, vnKV float64) float64 {
	return iPU * baseMVA / (math.Sqrt(3) * vnKV)
}

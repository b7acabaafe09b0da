package powerflow

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ohowland/gridfault/internal/pkg/network"
)

type branchKind int

const (
	lineBranch branchKind = iota
	trafoBranch
)

// branch is an energized two-port stamped into the admittance matrix.
type branch struct {
	kind     branchKind
	id       int
	f, t     int
	yff, yft complex128
	ytf, ytt complex128
	shift    float64 // radians, from side leads
	vnFromKV float64
	vnToKV   float64
	ratingKA float64
	ratingMV float64
}

// solverCase is the energized part of a network in per-unit form. Node
// indices are dense over the energized electrical nodes.
type solverCase struct {
	baseMVA  float64
	busNode  []int // bus id -> node, -1 when isolated
	nodes    int
	slack    int
	vSlack   complex128
	y        cmatrix
	sbus     []complex128
	branches []branch
	v0       []complex128
	isolated []int
}

// newCase runs topology processing on net and builds the admittance model.
func newCase(net *network.Network, baseMVA, freqHz float64) (*solverCase, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	src, err := net.Source()
	if err != nil {
		return nil, err
	}

	root := fuseBuses(net)
	active := activeLines(net)

	g := simple.NewUndirectedGraph()
	for b := range net.Buses {
		if root[b] == b {
			g.AddNode(simple.Node(b))
		}
	}
	connect := func(a, b int) {
		ra, rb := root[a], root[b]
		if ra != rb {
			g.SetEdge(g.NewEdge(simple.Node(ra), simple.Node(rb)))
		}
	}
	for _, l := range net.Lines {
		if active[l.ID] {
			connect(l.FromBus, l.ToBus)
		}
	}
	for _, t := range net.Transformers {
		if t.InService {
			connect(t.HVBus, t.LVBus)
		}
	}

	slackRoot := root[src.Bus]
	energized := make(map[int]bool)
	for _, cc := range topo.ConnectedComponents(g) {
		hit := false
		for _, n := range cc {
			if int(n.ID()) == slackRoot {
				hit = true
				break
			}
		}
		if hit {
			for _, n := range cc {
				energized[int(n.ID())] = true
			}
			break
		}
	}

	roots := make([]int, 0, len(energized))
	for r := range energized {
		roots = append(roots, r)
	}
	sort.Ints(roots)
	rootNode := make(map[int]int, len(roots))
	for i, r := range roots {
		rootNode[r] = i
	}

	c := &solverCase{
		baseMVA: baseMVA,
		busNode: make([]int, len(net.Buses)),
		nodes:   len(roots),
		slack:   rootNode[slackRoot],
		vSlack:  cmplx.Rect(src.VmPU, src.VaDegree*math.Pi/180),
	}
	for b := range net.Buses {
		n, ok := rootNode[root[b]]
		if !ok {
			c.busNode[b] = -1
			c.isolated = append(c.isolated, b)
			continue
		}
		c.busNode[b] = n
	}

	for _, l := range net.Lines {
		f, t := c.busNode[l.FromBus], c.busNode[l.ToBus]
		if !active[l.ID] || f < 0 || t < 0 {
			continue
		}
		c.branches = append(c.branches, lineModel(l, net.Buses[l.FromBus].VnKV, f, t, baseMVA, freqHz))
	}
	for _, tr := range net.Transformers {
		f, t := c.busNode[tr.HVBus], c.busNode[tr.LVBus]
		if !tr.InService || f < 0 || t < 0 {
			continue
		}
		c.branches = append(c.branches,
			trafoModel(tr, net.Buses[tr.HVBus].VnKV, net.Buses[tr.LVBus].VnKV, f, t, baseMVA))
	}

	c.y = newCMatrix(c.nodes)
	for _, br := range c.branches {
		c.y[br.f][br.f] += br.yff
		c.y[br.f][br.t] += br.yft
		c.y[br.t][br.f] += br.ytf
		c.y[br.t][br.t] += br.ytt
	}

	c.sbus = make([]complex128, c.nodes)
	for _, l := range net.Loads {
		n := c.busNode[l.Bus]
		if !l.InService || n < 0 {
			continue
		}
		c.sbus[n] -= complex(l.PMW, l.QMVAR) / complex(baseMVA, 0)
	}

	c.v0 = c.initialVoltage(cmplx.Abs(c.vSlack))
	return c, nil
}

// fuseBuses merges buses joined by closed bus switches and returns the
// representative bus of every bus.
func fuseBuses(net *network.Network) []int {
	parent := make([]int, len(net.Buses))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for _, sw := range net.Switches {
		if sw.Kind != network.BusSwitch || !sw.Closed {
			continue
		}
		a, b := find(sw.Bus), find(sw.Element)
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		parent[b] = a
	}

	root := make([]int, len(parent))
	for i := range parent {
		root[i] = find(i)
	}
	return root
}

// activeLines reports which lines carry current: in service and not opened
// at either end by a line switch.
func activeLines(net *network.Network) []bool {
	active := make([]bool, len(net.Lines))
	for i, l := range net.Lines {
		active[i] = l.InService
	}
	for _, sw := range net.Switches {
		if sw.Kind == network.LineSwitch && !sw.Closed {
			active[sw.Element] = false
		}
	}
	return active
}

func lineModel(l network.Line, vnKV float64, f, t int, baseMVA, freqHz float64) branch {
	zbase := vnKV * vnKV / baseMVA
	z := complex(l.ROhmPerKM*l.LengthKM, l.XOhmPerKM*l.LengthKM) / complex(zbase, 0)
	ys := 1 / z
	bsh := 2 * math.Pi * freqHz * l.CNFPerKM * 1e-9 * l.LengthKM * zbase
	ysh := complex(0, bsh/2)

	return branch{
		kind:     lineBranch,
		id:       l.ID,
		f:        f,
		t:        t,
		yff:      ys + ysh,
		yft:      -ys,
		ytf:      -ys,
		ytt:      ys + ysh,
		vnFromKV: vnKV,
		vnToKV:   vnKV,
		ratingKA: l.MaxIKA,
	}
}

// trafoModel places the ideal off-nominal tap on the hv side and the
// short-circuit impedance on the lv side. The magnetising branch sits at the
// hv terminal.
func trafoModel(tr network.Transformer, hvKV, lvKV float64, f, t int, baseMVA float64) branch {
	p := tr.Params
	shift := p.ShiftDegree * math.Pi / 180
	ratio := (p.VnHVKV / p.VnLVKV) / (hvKV / lvKV)
	tap := cmplx.Rect(ratio, shift)

	// rated impedance referred to the lv bus base
	rebase := baseMVA / p.SnMVA * (p.VnLVKV / lvKV) * (p.VnLVKV / lvKV)
	zk := p.VkPercent / 100 * rebase
	rk := p.VkrPercent / 100 * rebase
	xk := math.Sqrt(math.Max(zk*zk-rk*rk, 0))
	ys := 1 / complex(rk, xk)

	gm := p.PfeKW / 1000 / baseMVA
	ymag := p.I0Percent / 100 * p.SnMVA / baseMVA
	bm := math.Sqrt(math.Max(ymag*ymag-gm*gm, 0))
	ym := complex(gm, -bm)

	return branch{
		kind:     trafoBranch,
		id:       tr.ID,
		f:        f,
		t:        t,
		yff:      ys/complex(ratio*ratio, 0) + ym,
		yft:      -ys / cmplx.Conj(tap),
		ytf:      -ys / tap,
		ytt:      ys,
		shift:    shift,
		vnFromKV: hvKV,
		vnToKV:   lvKV,
		ratingMV: p.SnMVA,
	}
}

// initialVoltage is a flat start at the source magnitude with angles
// carried through transformer phase shifts.
func (c *solverCase) initialVoltage(vm float64) []complex128 {
	va := make([]float64, c.nodes)
	seen := make([]bool, c.nodes)

	adj := make([][]int, c.nodes)
	for i, br := range c.branches {
		adj[br.f] = append(adj[br.f], i)
		adj[br.t] = append(adj[br.t], i)
	}

	va[c.slack] = cmplx.Phase(c.vSlack)
	seen[c.slack] = true
	queue := []int{c.slack}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, i := range adj[n] {
			br := c.branches[i]
			next, angle := br.t, va[n]-br.shift
			if br.t == n {
				next, angle = br.f, va[n]+br.shift
			}
			if seen[next] {
				continue
			}
			seen[next] = true
			va[next] = angle
			queue = append(queue, next)
		}
	}

	v := make([]complex128, c.nodes)
	for i := range v {
		v[i] = cmplx.Rect(vm, va[i])
	}
	v[c.slack] = c.vSlack
	return v
}

// pq lists the non-reference nodes.
func (c *solverCase) pq() []int {
	pq := make([]int, 0, c.nodes)
	for i := 0; i < c.nodes; i++ {
		if i != c.slack {
			pq = append(pq, i)
		}
	}
	return pq
}

// mismatch returns the calculated minus scheduled injections at every node.
func (c *solverCase) mismatch(v []complex128) []complex128 {
	i := c.y.mulVec(v)
	mis := make([]complex128, c.nodes)
	for k := range v {
		mis[k] = v[k]*cmplx.Conj(i[k]) - c.sbus[k]
	}
	return mis
}

// residual stacks the real then reactive mismatch of the pq nodes.
func (c *solverCase) residual(v []complex128, pq []int) []float64 {
	mis := c.mismatch(v)
	f := make([]float64, 2*len(pq))
	for k, n := range pq {
		f[k] = real(mis[n])
		f[len(pq)+k] = imag(mis[n])
	}
	return f
}

func normInf(f []float64) float64 {
	max := 0.0
	for _, x := range f {
		if math.IsNaN(x) {
			return math.Inf(1)
		}
		if a := math.Abs(x); a > max {
			max = a
		}
	}
	return max
}

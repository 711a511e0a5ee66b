package lattice

import (
	"errors"
	"fmt"
)

// ErrCyclic is returned when a lattice contains a cycle reachable from its
// start state. Decoder lattices are acyclic by construction.
var ErrCyclic = errors.New("lattice: cycle reachable from start state")

// Path is one complete start-to-final route through a lattice.
type Path struct {
	Inputs []int
	Words  []int // epsilon-free output labels
	Weight Weight
}

type partial struct {
	prev   *partial
	arc    *Arc
	weight Weight
}

// ShortestPaths returns up to n lowest-total-weight paths, best first. Paths
// with equal totals keep the order in which they were enumerated (arc order
// from the start state), so the result is deterministic for a given lattice.
func ShortestPaths(l *Lattice, n int) ([]Path, error) {
	if n < 1 {
		return nil, fmt.Errorf("lattice: n-best count must be positive, got %d", n)
	}
	if l.NumStates() == 0 || l.Start() == NoState {
		return nil, nil
	}

	order, err := topoOrder(l)
	if err != nil {
		return nil, err
	}

	best := make([][]*partial, l.NumStates())
	best[l.start] = []*partial{{}}
	var complete []*partial

	for _, s := range order {
		for _, p := range best[s] {
			if fw, ok := l.Final(s); ok {
				complete = insertBounded(complete, &partial{prev: p, weight: p.weight.Times(fw)}, n)
			}
			arcs := l.Arcs(s)
			for i := range arcs {
				arc := &arcs[i]
				next := &partial{prev: p, arc: arc, weight: p.weight.Times(arc.Weight)}
				best[arc.Next] = insertBounded(best[arc.Next], next, n)
			}
		}
		best[s] = nil
	}

	paths := make([]Path, 0, len(complete))
	for _, c := range complete {
		paths = append(paths, c.path())
	}
	return paths, nil
}

// insertBounded keeps list sorted by total weight with at most n entries.
// A newcomer goes after existing entries of equal weight.
func insertBounded(list []*partial, p *partial, n int) []*partial {
	total := p.weight.Total()
	idx := len(list)
	for i, q := range list {
		if total < q.weight.Total() {
			idx = i
			break
		}
	}
	if idx >= n {
		return list
	}
	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = p
	if len(list) > n {
		list = list[:n]
	}
	return list
}

func (p *partial) path() Path {
	var arcs []*Arc
	for cur := p; cur != nil; cur = cur.prev {
		if cur.arc != nil {
			arcs = append(arcs, cur.arc)
		}
	}
	out := Path{Weight: p.weight}
	for i := len(arcs) - 1; i >= 0; i-- {
		a := arcs[i]
		if a.ILabel != Epsilon {
			out.Inputs = append(out.Inputs, a.ILabel)
		}
		if a.OLabel != Epsilon {
			out.Words = append(out.Words, a.OLabel)
		}
	}
	return out
}

// topoOrder lists the states reachable from start in topological order.
func topoOrder(l *Lattice) ([]StateID, error) {
	const (
		white = iota
		grey
		black
	)
	color := make([]uint8, l.NumStates())
	post := make([]StateID, 0, l.NumStates())

	type frame struct {
		s   StateID
		arc int
	}
	stack := []frame{{s: l.start}}
	color[l.start] = grey
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		arcs := l.Arcs(top.s)
		if top.arc == len(arcs) {
			color[top.s] = black
			post = append(post, top.s)
			stack = stack[:len(stack)-1]
			continue
		}
		next := arcs[top.arc].Next
		top.arc++
		if int(next) < 0 || int(next) >= l.NumStates() {
			return nil, fmt.Errorf("lattice: arc from state %d points to unknown state %d", top.s, next)
		}
		switch color[next] {
		case grey:
			return nil, ErrCyclic
		case white:
			color[next] = grey
			stack = append(stack, frame{s: next})
		}
	}

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post, nil
}

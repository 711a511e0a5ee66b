// Package lattice holds the weighted word lattice produced by a decoding engine
// and the n-best search used to read hypotheses out of it.
package lattice

// Epsilon is the label carried by arcs that emit no word.
const Epsilon = 0

// StateID indexes a state inside a Lattice.
type StateID int

// NoState marks an unset start state.
const NoState StateID = -1

// Weight is a two-component path cost. Graph is the language-model (graph)
// cost and Acoustic the acoustic cost. Lower totals are better.
type Weight struct {
	Graph    float64
	Acoustic float64
}

// Total returns the value paths are ranked by.
func (w Weight) Total() float64 {
	return w.Graph + w.Acoustic
}

// Times extends w by o, the semiring product of two lattice costs.
func (w Weight) Times(o Weight) Weight {
	return Weight{Graph: w.Graph + o.Graph, Acoustic: w.Acoustic + o.Acoustic}
}

// Arc is a weighted transition. ILabel is the engine's input symbol
// (transition id), OLabel the word id or Epsilon.
type Arc struct {
	ILabel int
	OLabel int
	Weight Weight
	Next   StateID
}

type state struct {
	arcs    []Arc
	final   Weight
	isFinal bool
}

// Lattice is a weighted directed graph of partial hypotheses. The zero value
// is not usable; call New.
type Lattice struct {
	start  StateID
	states []state
}

func New() *Lattice {
	return &Lattice{start: NoState}
}

// NumStates reports the number of states. A nil lattice has none.
func (l *Lattice) NumStates() int {
	if l == nil {
		return 0
	}
	return len(l.states)
}

func (l *Lattice) AddState() StateID {
	l.states = append(l.states, state{})
	return StateID(len(l.states) - 1)
}

func (l *Lattice) SetStart(s StateID) {
	l.start = s
}

func (l *Lattice) Start() StateID {
	if l == nil {
		return NoState
	}
	return l.start
}

func (l *Lattice) SetFinal(s StateID, w Weight) {
	l.states[s].final = w
	l.states[s].isFinal = true
}

// Final returns the final weight of s and whether s is final at all.
func (l *Lattice) Final(s StateID) (Weight, bool) {
	st := l.states[s]
	return st.final, st.isFinal
}

func (l *Lattice) AddArc(from StateID, arc Arc) {
	l.states[from].arcs = append(l.states[from].arcs, arc)
}

func (l *Lattice) Arcs(s StateID) []Arc {
	return l.states[s].arcs
}

// AddChain links from and to with a linear run of word arcs. The whole weight
// rides on the first arc; an empty word list becomes a single epsilon arc.
func (l *Lattice) AddChain(from, to StateID, words []int, w Weight) {
	if len(words) == 0 {
		l.AddArc(from, Arc{OLabel: Epsilon, Weight: w, Next: to})
		return
	}
	cur := from
	for i, word := range words {
		next := to
		if i < len(words)-1 {
			next = l.AddState()
		}
		arcWeight := Weight{}
		if i == 0 {
			arcWeight = w
		}
		l.AddArc(cur, Arc{ILabel: word, OLabel: word, Weight: arcWeight, Next: next})
		cur = next
	}
}

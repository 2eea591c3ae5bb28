package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/quadstore/model"
)

// RNG is a seeded random source safe for concurrent use. Two RNGs with the
// same seed produce the same datasets and patterns.
type RNG struct {
	mu   sync.Mutex
	src  *rand.Rand
	seed int64
	cdf  map[zipfKey][]float64
}

type zipfKey struct {
	n int
	s float64
}

// NewRNG returns an RNG seeded with seed.
func NewRNG(seed int64) *RNG {
	return &RNG{src: rand.New(rand.NewSource(seed)), seed: seed}
}

// Reset rewinds the sequence to the start.
func (r *RNG) Reset() {
	r.mu.Lock()
	r.src = rand.New(rand.NewSource(r.seed))
	r.mu.Unlock()
}

// Seed reports the seed the RNG was created with.
func (r *RNG) Seed() int64 { return r.seed }

// Intn returns a value in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// Zipf returns a value in [0,n) where rank k has weight 1/(k+1)^s.
// Larger s concentrates draws on the first few ranks.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipf(n, s)
}

// zipf requires r.mu.
func (r *RNG) zipf(n int, s float64) int {
	if n <= 1 {
		return 0
	}
	k := zipfKey{n, s}
	cdf, ok := r.cdf[k]
	if !ok {
		cdf = make([]float64, n)
		var sum float64
		for i := range cdf {
			sum += math.Pow(float64(i+1), -s)
			cdf[i] = sum
		}
		if r.cdf == nil {
			r.cdf = make(map[zipfKey][]float64)
		}
		r.cdf[k] = cdf
	}
	u := r.src.Float64() * cdf[n-1]
	i, _ := slices.BinarySearch(cdf, u)
	return min(i, n-1)
}

// Shape controls the vocabulary of generated datasets.
type Shape struct {
	// Graphs is the number of named graphs.
	Graphs int
	// Nodes is the number of distinct subjects and objects.
	Nodes int
	// Predicates is the number of distinct predicates. Defaults to 4.
	Predicates int
	// DefaultRate is the fraction of tuples placed in the default graph.
	DefaultRate float64
	// Skew, when positive, draws subjects from a Zipf distribution.
	Skew float64
}

// Node returns the i-th generated resource.
func Node(i int) model.IRI {
	return model.NewIRI(fmt.Sprintf("http://example.org/node/%d", i))
}

// Predicate returns the i-th generated predicate.
func Predicate(i int) model.IRI {
	return model.NewIRI(fmt.Sprintf("http://example.org/p/%d", i))
}

// GraphName returns the i-th generated graph name.
func GraphName(i int) model.IRI {
	return model.NewIRI(fmt.Sprintf("http://example.org/graph/%d", i))
}

// Quads generates n random quads. Default graph tuples carry
// model.DefaultGraph as their graph name. Duplicates are possible.
func (r *RNG) Quads(n int, sh Shape) []model.Quad {
	if sh.Predicates <= 0 {
		sh.Predicates = 4
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Quad, n)
	for i := range n {
		var g model.Term = model.DefaultGraph
		if sh.Graphs > 0 && r.src.Float64() >= sh.DefaultRate {
			g = GraphName(r.src.Intn(sh.Graphs))
		}

		var s int
		if sh.Skew > 0 {
			s = r.zipf(sh.Nodes, sh.Skew)
		} else {
			s = r.src.Intn(sh.Nodes)
		}

		// Every tenth object is a literal.
		var o model.Term = Node(r.src.Intn(sh.Nodes))
		if r.src.Intn(10) == 0 {
			o = model.NewLiteral(fmt.Sprintf("v%d", r.src.Intn(sh.Nodes)))
		}

		out[i] = model.NewQuad(g, Node(s), Predicate(r.src.Intn(sh.Predicates)), o)
	}
	return out
}

// Pattern derives a find pattern from q by replacing each position with
// model.Any with probability one half. The graph position additionally
// becomes model.UnionGraph with probability one tenth.
func (r *RNG) Pattern(q model.Quad) (g, s, p, o model.Term) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pick := func(t model.Term) model.Term {
		if r.src.Intn(2) == 0 {
			return model.Any
		}
		return t
	}

	g = pick(q.G)
	if r.src.Intn(10) == 0 {
		g = model.UnionGraph
	}
	return g, pick(q.S), pick(q.P), pick(q.O)
}

// ExactFind computes the answer of a find over data by brute force. A
// wildcard graph matches the default graph and all named graphs; the union
// graph yields each distinct named-graph triple once, named
// model.UnionGraph.
func ExactFind(data []model.Quad, g, s, p, o model.Term) []model.Quad {
	seen := make(map[model.Quad]struct{}, len(data))
	var out []model.Quad

	emit := func(q model.Quad) {
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}

	for _, q := range data {
		if model.IsDefaultGraph(q.G) {
			q.G = model.DefaultGraph
		}
		if !q.Triple().Matches(s, p, o) {
			continue
		}

		switch {
		case model.IsUnionGraph(g):
			if q.G != model.Term(model.DefaultGraph) {
				q.G = model.UnionGraph
				emit(q)
			}
		case model.IsWildcard(g) || g == q.G:
			emit(q)
		case model.IsDefaultGraph(g) && q.G == model.Term(model.DefaultGraph):
			emit(q)
		}
	}

	SortQuads(out)
	return out
}

// SortQuads sorts quads into a canonical order for comparison.
func SortQuads(quads []model.Quad) {
	slices.SortFunc(quads, func(a, b model.Quad) int {
		if c := strings.Compare(a.G.String(), b.G.String()); c != 0 {
			return c
		}
		return strings.Compare(a.Triple().String(), b.Triple().String())
	})
}

// Package tree provides the tree-shaped particle collections used by the smc
// package.  A tree is either a Leaf holding one array per particle, an ordered
// List of sub-trees or a keyed Dict of sub-trees.  Every leaf has a leading
// dimension equal to the number of particles.
package tree

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrIndexOutOfRange is returned (wrapped) when a gather index falls outside
// of a leaf's leading dimension.
var ErrIndexOutOfRange = errors.New("tree: index out of range")

// ErrNilLeaf is returned when a tree holds a nil *Leaf.
var ErrNilLeaf = errors.New("tree: nil leaf")

// ErrNoLeaves is returned when the number of particles is requested from a tree
// without any leaves.
var ErrNoLeaves = errors.New("tree: no leaves")

// ShapeMismatchError reports disagreeing particle counts.  Want is the count
// expected (e.g. from the first leaf) and Got the offending one.
type ShapeMismatchError struct {
	What string
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %v: expected %v, got %v", e.What, e.Want, e.Got)
}

// Tree is any of *Leaf, List or Dict.
type Tree interface {
	isTree()
}

// List is an ordered collection of sub-trees.
type List []Tree

// Dict is a keyed collection of sub-trees.  Its canonical traversal order is
// by sorted key.
type Dict map[string]Tree

func (List) isTree()  {}
func (Dict) isTree()  {}
func (*Leaf) isTree() {}

// Leaf stores one row per particle.  Row i of the underlying matrix holds the
// flattened trailing dimensions of particle i.
type Leaf struct {
	m        *mat.Dense
	trailing []int
}

func ncols(trailing []int) int {
	n := 1
	for _, d := range trailing {
		n *= d
	}
	return n
}

// NewLeaf creates a leaf of n particles where each particle is an array with
// the given trailing shape.  data is stored row-major (particle-major) and
// must have n*prod(trailing) elements; if data is nil, a zeroed leaf is
// created.  A nil or empty trailing shape represents one scalar per particle.
func NewLeaf(n int, trailing []int, data []float64) (*Leaf, error) {
	if n < 1 {
		return nil, fmt.Errorf("tree: leaf needs at least one particle, got %v", n)
	}
	for _, d := range trailing {
		if d < 1 {
			return nil, fmt.Errorf("tree: invalid trailing shape %v", trailing)
		}
	}
	c := ncols(trailing)
	if data != nil && len(data) != n*c {
		return nil, &ShapeMismatchError{What: "leaf data length", Want: n * c, Got: len(data)}
	}
	return &Leaf{m: mat.NewDense(n, c, data), trailing: append([]int{}, trailing...)}, nil
}

// Scalars creates a leaf holding one scalar per particle.  v is copied.
func Scalars(v []float64) (*Leaf, error) {
	return NewLeaf(len(v), nil, append([]float64(nil), v...))
}

// FromRows creates a leaf with one vector-valued particle per row.  All rows
// must have the same length.
func FromRows(rows [][]float64) (*Leaf, error) {
	if len(rows) == 0 {
		return nil, errors.New("tree: leaf needs at least one particle, got 0")
	}
	d := len(rows[0])
	data := make([]float64, 0, len(rows)*d)
	for i, r := range rows {
		if len(r) != d {
			return nil, &ShapeMismatchError{What: fmt.Sprintf("row %v length", i), Want: d, Got: len(r)}
		}
		data = append(data, r...)
	}
	return NewLeaf(len(rows), []int{d}, data)
}

// FromDense wraps m as a leaf with one row per particle and a trailing shape
// of [cols].  m is not copied.
func FromDense(m *mat.Dense) *Leaf {
	_, c := m.Dims()
	return &Leaf{m: m, trailing: []int{c}}
}

// Len returns the leading dimension (number of particles) of the leaf.
func (l *Leaf) Len() int {
	r, _ := l.m.Dims()
	return r
}

// Trailing returns a copy of the per-particle shape.
func (l *Leaf) Trailing() []int { return append([]int{}, l.trailing...) }

// Width is the number of values stored per particle.
func (l *Leaf) Width() int {
	_, c := l.m.Dims()
	return c
}

// Row returns a copy of particle i's values.
func (l *Leaf) Row(i int) []float64 {
	return append([]float64{}, l.m.RawRowView(i)...)
}

// At returns the j-th flattened value of particle i.
func (l *Leaf) At(i, j int) float64 { return l.m.At(i, j) }

// Dense returns a read-only view of the leaf's values.
func (l *Leaf) Dense() mat.Matrix { return l.m }

// Gather returns a new leaf whose i-th particle is a copy of particle idx[i].
func (l *Leaf) Gather(idx []int) (*Leaf, error) {
	if len(idx) == 0 {
		return nil, errors.New("tree: gather needs at least one index")
	}
	n := l.Len()
	out := mat.NewDense(len(idx), l.Width(), nil)
	for i, j := range idx {
		if j < 0 || j >= n {
			return nil, fmt.Errorf("%w: index %v at position %v, leading dim is %v", ErrIndexOutOfRange, j, i, n)
		}
		out.SetRow(i, l.m.RawRowView(j))
	}
	return &Leaf{m: out, trailing: l.Trailing()}, nil
}

// Walk calls fn for every leaf of t in canonical order: List children in
// order, Dict children by sorted key, depth first.  Walk stops at the first
// error returned by fn.  A nil *Leaf anywhere in t is an error.
func Walk(t Tree, fn func(l *Leaf) error) error {
	switch n := t.(type) {
	case *Leaf:
		if n == nil {
			return ErrNilLeaf
		}
		return fn(n)
	case List:
		for _, c := range n {
			if err := Walk(c, fn); err != nil {
				return err
			}
		}
	case Dict:
		for _, k := range sortedKeys(n) {
			if err := Walk(n[k], fn); err != nil {
				return err
			}
		}
	case nil:
	default:
		return fmt.Errorf("tree: unsupported node type %T", t)
	}
	return nil
}

func sortedKeys(d Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Leaves flattens t into its leaves in canonical order.  Nil leaves are
// skipped.
func Leaves(t Tree) []*Leaf {
	var leaves []*Leaf
	var walk func(t Tree)
	walk = func(t Tree) {
		switch n := t.(type) {
		case *Leaf:
			if n != nil {
				leaves = append(leaves, n)
			}
		case List:
			for _, c := range n {
				walk(c)
			}
		case Dict:
			for _, k := range sortedKeys(n) {
				walk(n[k])
			}
		}
	}
	walk(t)
	return leaves
}

// Map applies fn to every leaf of t and returns a tree of the same shape
// holding the results.  t is not modified.
func Map(t Tree, fn func(l *Leaf) (*Leaf, error)) (Tree, error) {
	switch n := t.(type) {
	case *Leaf:
		if n == nil {
			return nil, ErrNilLeaf
		}
		return fn(n)
	case List:
		out := make(List, len(n))
		for i, c := range n {
			m, err := Map(c, fn)
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	case Dict:
		out := make(Dict, len(n))
		for _, k := range sortedKeys(n) {
			m, err := Map(n[k], fn)
			if err != nil {
				return nil, err
			}
			out[k] = m
		}
		return out, nil
	}
	return nil, fmt.Errorf("tree: unsupported node type %T", t)
}

// LeadingDim returns the number of particles stored in t, taken from the
// first leaf in canonical order.  Every other leaf must agree with it.
func LeadingDim(t Tree) (int, error) {
	n := -1
	err := Walk(t, func(l *Leaf) error {
		if n < 0 {
			n = l.Len()
		} else if l.Len() != n {
			return &ShapeMismatchError{What: "leaf leading dimension", Want: n, Got: l.Len()}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrNoLeaves
	}
	return n, nil
}

// Gather selects the particles idx from every leaf of t.  Repeated indices
// are allowed.
func Gather(t Tree, idx []int) (Tree, error) {
	return Map(t, func(l *Leaf) (*Leaf, error) { return l.Gather(idx) })
}

// SameStructure reports whether a and b have the same nesting, keys and
// per-particle leaf shapes.  Particle counts are not compared.  Trees holding
// nil leaves never have the same structure.
func SameStructure(a, b Tree) bool {
	switch x := a.(type) {
	case *Leaf:
		y, ok := b.(*Leaf)
		if !ok || x == nil || y == nil || len(x.trailing) != len(y.trailing) {
			return false
		}
		for i := range x.trailing {
			if x.trailing[i] != y.trailing[i] {
				return false
			}
		}
		return true
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !SameStructure(x[i], y[i]) {
				return false
			}
		}
		return true
	case Dict:
		y, ok := b.(Dict)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, c := range x {
			d, ok := y[k]
			if !ok || !SameStructure(c, d) {
				return false
			}
		}
		return true
	}
	return false
}

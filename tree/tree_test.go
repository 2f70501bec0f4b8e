package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func mustRows(t *testing.T, rows [][]float64) *Leaf {
	l, err := FromRows(rows)
	require.NoError(t, err)
	return l
}

func mustScalars(t *testing.T, v ...float64) *Leaf {
	l, err := Scalars(v)
	require.NoError(t, err)
	return l
}

func TestLeadingDim(t *testing.T) {
	a := mustScalars(t, 1, 1.2, 3.4)
	b := mustRows(t, [][]float64{{1, 2}, {3, 4}, {5, 6}})

	n, err := LeadingDim(List{a, Dict{"x": b}})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	c := mustScalars(t, 1, 2)
	_, err = LeadingDim(List{a, c})
	var shape *ShapeMismatchError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, 3, shape.Want)
	assert.Equal(t, 2, shape.Got)

	_, err = LeadingDim(List{})
	assert.ErrorIs(t, err, ErrNoLeaves)
}

func TestLeavesCanonicalOrder(t *testing.T) {
	a := mustScalars(t, 1)
	b := mustScalars(t, 2)
	c := mustScalars(t, 3)
	leaves := Leaves(Dict{"zeta": a, "alpha": List{b, c}})
	require.Len(t, leaves, 3)
	assert.Same(t, b, leaves[0])
	assert.Same(t, c, leaves[1])
	assert.Same(t, a, leaves[2])
}

func TestGather(t *testing.T) {
	a := mustScalars(t, 10, 20, 30)
	b, err := NewLeaf(3, []int{2, 2}, []float64{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	})
	require.NoError(t, err)

	g, err := Gather(Dict{"a": a, "b": b}, []int{2, 0, 2, 2})
	require.NoError(t, err)

	d := g.(Dict)
	ga := d["a"].(*Leaf)
	gb := d["b"].(*Leaf)
	assert.Equal(t, 4, ga.Len())
	assert.Equal(t, []float64{30}, ga.Row(0))
	assert.Equal(t, []float64{10}, ga.Row(1))
	assert.Equal(t, []int{2, 2}, gb.Trailing())
	assert.Equal(t, []float64{8, 9, 10, 11}, gb.Row(3))
	assert.Equal(t, []float64{0, 1, 2, 3}, gb.Row(1))

	// source is untouched
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, []float64{20}, a.Row(1))

	_, err = Gather(a, []int{0, 3})
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = Gather(a, []int{-1})
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestMapPreservesShape(t *testing.T) {
	in := List{mustScalars(t, 1, 2), Dict{"v": mustRows(t, [][]float64{{1, 1}, {2, 2}})}}
	out, err := Map(in, func(l *Leaf) (*Leaf, error) { return l.Gather([]int{1}) })
	require.NoError(t, err)
	assert.True(t, SameStructure(in, out))
	n, err := LeadingDim(out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSameStructure(t *testing.T) {
	a := List{mustScalars(t, 1), mustRows(t, [][]float64{{1, 2}})}
	b := List{mustScalars(t, 5, 6), mustRows(t, [][]float64{{1, 2}, {3, 4}})}
	c := List{mustScalars(t, 1), mustRows(t, [][]float64{{1, 2, 3}})}
	assert.True(t, SameStructure(a, b))
	assert.False(t, SameStructure(a, c))
	assert.False(t, SameStructure(a, Dict{"x": mustScalars(t, 1)}))
	assert.False(t, SameStructure(Dict{"x": mustScalars(t, 1)}, Dict{"y": mustScalars(t, 1)}))
}

func TestNilLeaf(t *testing.T) {
	a := mustScalars(t, 1, 2, 3)
	withNil := List{a, Dict{"x": (*Leaf)(nil)}}

	_, err := LeadingDim(withNil)
	assert.ErrorIs(t, err, ErrNilLeaf)
	require.NotPanics(t, func() {
		_, err = Gather(withNil, []int{0, 0, 1})
	})
	assert.ErrorIs(t, err, ErrNilLeaf)
	assert.False(t, SameStructure(withNil, withNil))
	assert.Equal(t, []*Leaf{a}, Leaves(withNil))
}

func TestFromDense(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	l := FromDense(m)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []int{2}, l.Trailing())
	assert.Equal(t, []float64{3, 4}, l.Row(1))

	m.Set(1, 0, 30)
	assert.Equal(t, 30.0, l.At(1, 0))
}

func TestNewLeafErrors(t *testing.T) {
	_, err := NewLeaf(0, nil, nil)
	assert.Error(t, err)
	_, err = NewLeaf(2, []int{0}, nil)
	assert.Error(t, err)
	_, err = NewLeaf(2, []int{3}, []float64{1, 2})
	var shape *ShapeMismatchError
	assert.ErrorAs(t, err, &shape)
	_, err = FromRows([][]float64{{1, 2}, {3}})
	assert.ErrorAs(t, err, &shape)
}

func TestParticlesRoundTrip(t *testing.T) {
	like := Dict{
		"mu":    mustScalars(t, 1, 2, 3),
		"sigma": mustRows(t, [][]float64{{1, 0}, {2, 0}, {3, 0}}),
	}
	ps, err := Particles(like)
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, Particle{{2}, {2, 0}}, ps[1])

	ps = append(ps, Particle{{4}, {4, 1}})
	out, err := Assemble(like, ps)
	require.NoError(t, err)
	n, err := LeadingDim(out)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	p, err := At(out, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 4, 1}, p.Flat())

	_, err = Assemble(like, []Particle{{{1}}})
	var shape *ShapeMismatchError
	assert.ErrorAs(t, err, &shape)
	_, err = Assemble(like, []Particle{{{1}, {1, 2, 3}}})
	assert.ErrorAs(t, err, &shape)
}

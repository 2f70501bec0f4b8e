package tree

import "fmt"

// Particle is a single particle's view of a tree: one row per leaf, in
// canonical leaf order.
type Particle [][]float64

// Clone returns a deep copy of p.
func (p Particle) Clone() Particle {
	c := make(Particle, len(p))
	for i, row := range p {
		c[i] = append([]float64{}, row...)
	}
	return c
}

// Flat concatenates all of p's rows.
func (p Particle) Flat() []float64 {
	var v []float64
	for _, row := range p {
		v = append(v, row...)
	}
	return v
}

// At extracts particle i from t.
func At(t Tree, i int) (Particle, error) {
	var p Particle
	err := Walk(t, func(l *Leaf) error {
		if i < 0 || i >= l.Len() {
			return fmt.Errorf("%w: particle %v, leading dim is %v", ErrIndexOutOfRange, i, l.Len())
		}
		p = append(p, l.Row(i))
		return nil
	})
	return p, err
}

// Particles extracts every particle of t.
func Particles(t Tree) ([]Particle, error) {
	n, err := LeadingDim(t)
	if err != nil {
		return nil, err
	}
	ps := make([]Particle, n)
	for i := range ps {
		if ps[i], err = At(t, i); err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// Assemble builds a tree with the structure of like holding the particles ps.
// Every particle must have one row per leaf of like with matching widths.
func Assemble(like Tree, ps []Particle) (Tree, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("tree: cannot assemble zero particles")
	}
	nleaves := len(Leaves(like))
	for i, p := range ps {
		if len(p) != nleaves {
			return nil, &ShapeMismatchError{What: fmt.Sprintf("particle %v leaf count", i), Want: nleaves, Got: len(p)}
		}
	}

	k := 0
	return Map(like, func(l *Leaf) (*Leaf, error) {
		j := k
		k++
		w := l.Width()
		data := make([]float64, 0, len(ps)*w)
		for i, p := range ps {
			if len(p[j]) != w {
				return nil, &ShapeMismatchError{What: fmt.Sprintf("particle %v leaf %v width", i, j), Want: w, Got: len(p[j])}
			}
			data = append(data, p[j]...)
		}
		return NewLeaf(len(ps), l.trailing, data)
	})
}

package batch

import (
	"crypto/sha1"
	"encoding/binary"
	"math"
	"sync"

	"github.com/rwcarlsen/smc/tree"
)

func hashParticle(x tree.Particle) [sha1.Size]byte {
	h := sha1.New()
	var buf [8]byte
	for _, row := range x {
		// row lengths are hashed too so that {{1}, {2}} != {{1, 2}}
		binary.BigEndian.PutUint64(buf[:], uint64(len(row)))
		h.Write(buf[:])
		for _, v := range row {
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	var sum [sha1.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// Cache memoizes a LogDensity.  Metropolis kernels re-evaluate the current
// state of every chain each move and waste-free chains revisit rejected
// states, so caching avoids repeated evaluations of expensive densities.
// Cache is safe for use by a Parallel Evaler.
type Cache struct {
	f     LogDensity
	mu    sync.Mutex
	cache map[[sha1.Size]byte]float64
	// Hits and Misses count lookups.
	Hits, Misses int
}

func NewCache(f LogDensity) *Cache {
	return &Cache{f: f, cache: map[[sha1.Size]byte]float64{}}
}

// LogDensity returns the cached density of x, evaluating it on a miss.
func (c *Cache) LogDensity(x tree.Particle) float64 {
	k := hashParticle(x)
	c.mu.Lock()
	if v, ok := c.cache[k]; ok {
		c.Hits++
		c.mu.Unlock()
		return v
	}
	c.Misses++
	c.mu.Unlock()

	v := c.f(x)

	c.mu.Lock()
	c.cache[k] = v
	c.mu.Unlock()
	return v
}

// Len returns the number of cached densities.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

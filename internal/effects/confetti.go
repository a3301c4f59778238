// Package effects generates the confetti celebration.
package effects

import (
	"math/rand"
	"time"
)

const (
	// DefaultCount is the number of particles in one burst.
	DefaultCount = 50
	// Lifetime is how long a particle lives regardless of its fall duration.
	Lifetime = 3500 * time.Millisecond

	minFall  = 2 * time.Second
	fallSpan = 1500 * time.Millisecond
)

// Palette lists the confetti colors.
var Palette = []string{"#ffd700", "#ffb347", "#ffa500", "#ff69b4", "#ff1493"}

// Particle is one piece of confetti.
type Particle struct {
	X         float64 // horizontal position in percent, [0, 100)
	Color     string
	Fall      time.Duration // [2s, 3.5s)
	Rotation  float64       // degrees, [0, 360)
	Born      time.Time
	ExpiresAt time.Time
}

// Progress returns how far the particle has fallen at now, in [0, 1].
func (p Particle) Progress(now time.Time) float64 {
	if p.Fall <= 0 {
		return 1
	}
	elapsed := now.Sub(p.Born)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= p.Fall {
		return 1
	}
	// ease-in
	t := float64(elapsed) / float64(p.Fall)
	return t * t
}

// Confetti holds live particles.
type Confetti struct {
	rnd  *rand.Rand
	live []Particle
}

// New returns Confetti seeded with the current time.
func New() *Confetti {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource returns Confetti drawing from src.
func NewWithSource(src rand.Source) *Confetti {
	return &Confetti{rnd: rand.New(src)}
}

// Fire adds a burst of count particles born at now. Each burst is independent.
// A count of zero or less adds nothing.
func (c *Confetti) Fire(now time.Time, count int) []Particle {
	if count <= 0 {
		return nil
	}
	burst := make([]Particle, 0, count)
	for i := 0; i < count; i++ {
		burst = append(burst, Particle{
			X:         c.rnd.Float64() * 100,
			Color:     Palette[c.rnd.Intn(len(Palette))],
			Fall:      minFall + time.Duration(c.rnd.Float64()*float64(fallSpan)),
			Rotation:  c.rnd.Float64() * 360,
			Born:      now,
			ExpiresAt: now.Add(Lifetime),
		})
	}
	c.live = append(c.live, burst...)
	return burst
}

// Prune drops particles that have expired by now and returns how many remain.
func (c *Confetti) Prune(now time.Time) int {
	kept := c.live[:0]
	for _, p := range c.live {
		if now.Before(p.ExpiresAt) {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(c.live); i++ {
		c.live[i] = Particle{}
	}
	c.live = kept
	return len(c.live)
}

// Live returns the particles not yet pruned.
func (c *Confetti) Live() []Particle {
	return c.live
}

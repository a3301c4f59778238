// Package playback starts background music with a one-time retry.
package playback

import (
	"go.uber.org/zap"
)

// Player starts looping playback of an audio reference.
type Player interface {
	Play(ref string) error
	Stop()
}

// Controller owns the playback state for one card session.
//
// attempted latches on the first AttemptPlay with a source. engaged is set
// only once a Play call has succeeded, so the deferred retry runs when the
// first attempt failed.
type Controller struct {
	player Player
	log    *zap.Logger

	source    string
	attempted bool
	engaged   bool
	retryArm  bool
}

// NewController returns a Controller driving player.
func NewController(player Player, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{player: player, log: log}
}

// SetSource stages ref for the next playback attempt.
func (c *Controller) SetSource(ref string) {
	c.source = ref
}

// Attempted reports whether playback was ever attempted.
func (c *Controller) Attempted() bool {
	return c.attempted
}

// Engaged reports whether playback was confirmed started.
func (c *Controller) Engaged() bool {
	return c.engaged
}

// RetryArmed reports whether a retry waits for the next interaction.
func (c *Controller) RetryArmed() bool {
	return c.retryArm
}

// AttemptPlay starts playback of the staged source. Without a source it does
// nothing. A failed attempt arms a single retry for the next interaction.
func (c *Controller) AttemptPlay() {
	if c.source == "" {
		return
	}
	c.attempted = true
	if err := c.player.Play(c.source); err != nil {
		c.log.Warn("music autoplay prevented", zap.String("source", c.source), zap.Error(err))
		c.retryArm = true
		return
	}
	c.engaged = true
	c.log.Info("music started", zap.String("source", c.source))
}

// OnInteraction consumes the armed retry, if any.
func (c *Controller) OnInteraction() {
	if !c.retryArm {
		return
	}
	c.retryArm = false
	if c.engaged || c.source == "" {
		return
	}
	if err := c.player.Play(c.source); err != nil {
		c.log.Warn("music retry failed", zap.String("source", c.source), zap.Error(err))
		return
	}
	c.engaged = true
	c.log.Info("music started on retry", zap.String("source", c.source))
}

// Stop halts playback.
func (c *Controller) Stop() {
	if c.engaged {
		c.player.Stop()
	}
	c.engaged = false
	c.retryArm = false
}

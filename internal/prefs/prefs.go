// Package prefs persists the card image and music references.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/greetcard/internal/model"
)

// Keys under which references are stored.
const (
	KeyImage = "card.image"
	KeyMusic = "card.music"
)

// ErrEmptyValue is returned when a reference is set to an empty value.
var ErrEmptyValue = errors.New("value is empty")

// KV is a durable string key-value capability.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Prefs reads and writes card references in a KV.
type Prefs struct {
	kv KV
}

// New returns Prefs backed by kv.
func New(kv KV) *Prefs {
	return &Prefs{kv: kv}
}

// ImageRef returns the stored image reference, or "" when never set.
func (p *Prefs) ImageRef(ctx context.Context) (string, error) {
	return p.get(ctx, KeyImage)
}

// SetImageRef stores ref as the image reference.
func (p *Prefs) SetImageRef(ctx context.Context, ref string) error {
	return p.set(ctx, KeyImage, ref)
}

// AudioRef returns the stored music reference, or "" when never set.
func (p *Prefs) AudioRef(ctx context.Context) (string, error) {
	return p.get(ctx, KeyMusic)
}

// SetAudioRef stores ref as the music reference.
func (p *Prefs) SetAudioRef(ctx context.Context, ref string) error {
	return p.set(ctx, KeyMusic, ref)
}

// Load reads both references. A failed read leaves its field empty and is
// reported in the joined error.
func (p *Prefs) Load(ctx context.Context) (model.Preferences, error) {
	image, ierr := p.ImageRef(ctx)
	audio, aerr := p.AudioRef(ctx)
	return model.Preferences{ImageRef: image, AudioRef: audio}, errors.Join(ierr, aerr)
}

func (p *Prefs) get(ctx context.Context, key string) (string, error) {
	value, ok, err := p.kv.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

func (p *Prefs) set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %w", key, ErrEmptyValue)
	}
	if err := p.kv.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Package card sequences the intro, card and finale screens.
package card

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/greetcard/internal/effects"
	"github.com/verte-zerg/greetcard/internal/model"
	"github.com/verte-zerg/greetcard/internal/nav"
	"github.com/verte-zerg/greetcard/internal/prefs"
	"github.com/verte-zerg/greetcard/internal/schedule"
)

// Phase is the active screen.
type Phase int

const (
	Intro Phase = iota
	Card
	Finale
)

func (p Phase) String() string {
	switch p {
	case Card:
		return "card"
	case Finale:
		return "finale"
	default:
		return "intro"
	}
}

// PageTag marks how a page is drawn relative to the current one.
type PageTag int

const (
	TagNone PageTag = iota
	TagActive
	TagBefore
)

// Button labels for the forward action.
const (
	LabelNext     = "Next →"
	LabelComplete = "Complete ✨"
)

// Task names.
const (
	TaskEnterCard   = "enter-card"
	TaskEnterFinale = "enter-finale"
)

// DefaultTransitionDelay lets the outgoing screen finish its exit.
const DefaultTransitionDelay = 300 * time.Millisecond

// Music is the playback side of the card.
type Music interface {
	SetSource(ref string)
	AttemptPlay()
	OnInteraction()
	Stop()
}

// Preferences persists the card references.
type Preferences interface {
	Load(ctx context.Context) (model.Preferences, error)
	SetImageRef(ctx context.Context, ref string) error
	SetAudioRef(ctx context.Context, ref string) error
}

// Options tunes an Orchestrator.
type Options struct {
	TransitionDelay time.Duration
	Confetti        int
	NoMusic         bool
	Now             func() time.Time
	Log             *zap.Logger
}

// Orchestrator owns the presentation state for one run.
type Orchestrator struct {
	pages    []model.Page
	nav      *nav.Navigator
	music    Music
	confetti *effects.Confetti
	prefs    Preferences
	log      *zap.Logger

	delay   time.Duration
	count   int
	noMusic bool
	now     func() time.Time

	phase    Phase
	leaving  bool
	imageRef string
	bursts   int
}

// New builds an Orchestrator over pages. At least one page is required.
func New(pages []model.Page, music Music, confetti *effects.Confetti, store Preferences, opts Options) (*Orchestrator, error) {
	n, err := nav.New(len(pages))
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		pages:    pages,
		nav:      n,
		music:    music,
		confetti: confetti,
		prefs:    store,
		log:      opts.Log,
		delay:    opts.TransitionDelay,
		count:    opts.Confetti,
		noMusic:  opts.NoMusic,
		now:      opts.Now,
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.delay <= 0 {
		o.delay = DefaultTransitionDelay
	}
	if o.count <= 0 {
		o.count = effects.DefaultCount
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// Restore applies stored references. Read failures are logged and ignored.
func (o *Orchestrator) Restore(ctx context.Context) {
	stored, err := o.prefs.Load(ctx)
	if err != nil {
		o.log.Warn("failed to restore preferences", zap.Error(err))
	}
	if stored.ImageRef != "" {
		o.imageRef = stored.ImageRef
	}
	if stored.AudioRef != "" {
		o.music.SetSource(stored.AudioRef)
	}
	o.log.Debug("preferences restored",
		zap.Bool("image", stored.ImageRef != ""),
		zap.Bool("music", stored.AudioRef != ""))
}

// UploadCardImage persists ref and then makes it the card image. An empty
// ref or a failed write leaves the current image in place.
func (o *Orchestrator) UploadCardImage(ctx context.Context, ref string) error {
	if err := o.prefs.SetImageRef(ctx, ref); err != nil {
		o.logSetFailure("image", err)
		return err
	}
	o.imageRef = ref
	o.log.Info("image uploaded", zap.String("ref", ref))
	return nil
}

// SetBackgroundMusic persists ref and then stages it for the next playback
// attempt.
func (o *Orchestrator) SetBackgroundMusic(ctx context.Context, ref string) error {
	if err := o.prefs.SetAudioRef(ctx, ref); err != nil {
		o.logSetFailure("music", err)
		return err
	}
	o.music.SetSource(ref)
	o.log.Info("music set", zap.String("ref", ref))
	return nil
}

func (o *Orchestrator) logSetFailure(kind string, err error) {
	if errors.Is(err, prefs.ErrEmptyValue) {
		o.log.Error("please provide a reference", zap.String("kind", kind))
		return
	}
	o.log.Error("failed to persist reference", zap.String("kind", kind), zap.Error(err))
}

// Start leaves the intro. The returned task enters the card.
func (o *Orchestrator) Start() []schedule.Task {
	if o.phase != Intro || o.leaving {
		return nil
	}
	o.leaving = true
	return []schedule.Task{{Name: TaskEnterCard, Delay: o.delay, Action: o.enterCard}}
}

func (o *Orchestrator) enterCard() {
	o.phase = Card
	o.leaving = false
	o.nav.Reset()
	if !o.noMusic {
		o.music.AttemptPlay()
	}
	o.log.Debug("entered card", zap.Int("pages", o.nav.Total()))
}

// OnAdvance moves forward. Past the last page it returns the task that
// enters the finale.
func (o *Orchestrator) OnAdvance() (nav.Signal, []schedule.Task) {
	if o.phase != Card || o.leaving {
		return nav.NoChange, nil
	}
	sig := o.nav.Advance()
	if sig != nav.SequenceComplete {
		return sig, nil
	}
	o.leaving = true
	return sig, []schedule.Task{{Name: TaskEnterFinale, Delay: o.delay, Action: o.enterFinale}}
}

func (o *Orchestrator) enterFinale() {
	o.phase = Finale
	o.leaving = false
	o.confetti.Fire(o.now(), o.count)
	o.bursts++
	o.log.Debug("entered finale", zap.Int("confetti", o.count))
}

// OnRetreat moves back one page and reports whether anything changed.
func (o *Orchestrator) OnRetreat() bool {
	if o.phase != Card || o.leaving {
		return false
	}
	return o.nav.Retreat() == nav.PageChanged
}

// Interact records a user interaction anywhere in the interface.
func (o *Orchestrator) Interact() {
	o.music.OnInteraction()
}

// Close stops playback.
func (o *Orchestrator) Close() {
	o.music.Stop()
}

// Phase returns the active screen.
func (o *Orchestrator) Phase() Phase { return o.phase }

// Leaving reports whether the active screen is running its exit.
func (o *Orchestrator) Leaving() bool { return o.leaving }

// Pages returns the card pages.
func (o *Orchestrator) Pages() []model.Page { return o.pages }

// Current returns the current page index.
func (o *Orchestrator) Current() int { return o.nav.Current() }

// ImageRef returns the active image reference.
func (o *Orchestrator) ImageRef() string { return o.imageRef }

// Bursts returns how many confetti bursts were fired.
func (o *Orchestrator) Bursts() int { return o.bursts }

// Confetti returns the particle field.
func (o *Orchestrator) Confetti() *effects.Confetti { return o.confetti }

// PageTags tags every page: the current one active, earlier ones before.
func (o *Orchestrator) PageTags() []PageTag {
	tags := make([]PageTag, len(o.pages))
	cur := o.nav.Current()
	for i := range tags {
		switch {
		case i == cur:
			tags[i] = TagActive
		case i < cur:
			tags[i] = TagBefore
		}
	}
	return tags
}

// BackVisible reports whether the back control is shown.
func (o *Orchestrator) BackVisible() bool {
	return o.nav.CanRetreat()
}

// NextLabel returns the forward control label.
func (o *Orchestrator) NextLabel() string {
	if o.nav.IsLast() {
		return LabelComplete
	}
	return LabelNext
}

// ShowImage reports whether the cover image is drawn on the current page.
func (o *Orchestrator) ShowImage() bool {
	return o.nav.Current() == 0 && o.imageRef != ""
}

// Package model defines shared data structures.
package model

import "time"

// Config defines card presentation settings.
type Config struct {
	PagesPath       string
	Confetti        int
	TransitionDelay time.Duration
	NoMusic         bool
	Verbose         bool
}

// Page is one unit of card content shown or hidden as a whole.
type Page struct {
	Title string
	Body  string
}

// Preferences holds the persisted card references. Empty means never set.
type Preferences struct {
	ImageRef string
	AudioRef string
}

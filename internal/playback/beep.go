package playback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

const (
	sampleRate     = beep.SampleRate(44100)
	resampleQual   = 4
	fetchTimeout   = 15 * time.Second
	maxRemoteBytes = 64 << 20
)

// BeepPlayer plays looping music on the default audio device.
type BeepPlayer struct {
	mu          sync.Mutex
	initialized bool
	current     beep.StreamSeekCloser
	ctrl        *beep.Ctrl
	client      *http.Client
}

// NewBeepPlayer returns a player that initializes the speaker lazily.
func NewBeepPlayer() *BeepPlayer {
	return &BeepPlayer{client: &http.Client{Timeout: fetchTimeout}}
}

// Play loads ref (a file path, file:// or http(s) URL to .mp3 or .wav) and
// starts looping it, replacing any current track.
func (p *BeepPlayer) Play(ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	streamer, format, err := p.load(ref)
	if err != nil {
		return err
	}
	if !p.initialized {
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			_ = streamer.Close()
			return fmt.Errorf("failed to init speaker: %w", err)
		}
		p.initialized = true
	}

	p.stopLocked()
	var out beep.Streamer = beep.Loop(-1, streamer)
	if format.SampleRate != sampleRate {
		out = beep.Resample(resampleQual, format.SampleRate, sampleRate, out)
	}
	p.current = streamer
	p.ctrl = &beep.Ctrl{Streamer: out}
	speaker.Play(p.ctrl)
	return nil
}

// Stop halts and releases the current track.
func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *BeepPlayer) stopLocked() {
	if !p.initialized || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	speaker.Clear()
	if err := p.current.Close(); err != nil {
		// Best-effort close of the decoded stream.
		_ = err
	}
	p.ctrl = nil
	p.current = nil
}

func (p *BeepPlayer) load(ref string) (beep.StreamSeekCloser, beep.Format, error) {
	rc, err := p.open(ref)
	if err != nil {
		return nil, beep.Format{}, err
	}
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := audioExt(ref); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(rc)
	case ".wav":
		streamer, format, err = wav.Decode(rc)
	default:
		_ = rc.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		_ = rc.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", ref, err)
	}
	return streamer, format, nil
}

func (p *BeepPlayer) open(ref string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return p.fetch(ref)
	case strings.HasPrefix(ref, "file://"):
		ref = strings.TrimPrefix(ref, "file://")
	}
	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	return f, nil
}

// fetch buffers the remote file so the decoder can seek when looping.
func (p *BeepPlayer) fetch(url string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch audio: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return seekNopCloser{bytes.NewReader(data)}, nil
}

type seekNopCloser struct {
	*bytes.Reader
}

func (seekNopCloser) Close() error { return nil }

func audioExt(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 && (strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")) {
		ref = ref[:i]
	}
	return strings.ToLower(path.Ext(ref))
}

package service

import (
	"artcritic/internal/core/domain"
	"artcritic/internal/core/port"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Observer receives every state change in the order the originating operations
// were issued. err is set when a selected file could not be used. It runs
// without the controller lock held, one update at a time; it may read State but
// must not call Select, Remove or Generate.
type Observer func(state domain.SubmissionState, err error)

type ControllerParams struct {
	// Context bounds all asynchronous work; it defaults to context.Background.
	Context    context.Context
	Normalizer port.ImageNormalizer
	Encoder    port.PayloadEncoder
	Analyzer   port.Analyzer
	MaxWidth   int
	// Timeout caps a single analysis request. Zero means no limit.
	Timeout  time.Duration
	Observer Observer
	Session  int64
}

type update struct {
	state domain.SubmissionState
	err   error
}

// Controller owns the SubmissionState of one session and sequences
// normalize, encode and analyze for it.
type Controller struct {
	ctx        context.Context
	normalizer port.ImageNormalizer
	encoder    port.PayloadEncoder
	analyzer   port.Analyzer
	maxWidth   int
	timeout    time.Duration
	observer   Observer
	l          zerolog.Logger

	mu       sync.Mutex
	state    domain.SubmissionState
	epoch    uint64
	closed   bool
	inflight int
	idle     *sync.Cond
	updates  []update

	// serializes observer calls
	deliver sync.Mutex
}

func NewController(p ControllerParams) *Controller {
	ctx := p.Context
	if ctx == nil {
		ctx = context.Background()
	}

	maxWidth := p.MaxWidth
	if maxWidth <= 0 {
		maxWidth = domain.DefaultMaxWidth
	}

	c := &Controller{
		ctx:        ctx,
		normalizer: p.Normalizer,
		encoder:    p.Encoder,
		analyzer:   p.Analyzer,
		maxWidth:   maxWidth,
		timeout:    p.Timeout,
		observer:   p.Observer,
		l:          log.With().Int64("chatId", p.Session).Str("component", "controller").Logger(),
		state:      domain.SubmissionState{Phase: domain.Empty},
	}
	c.idle = sync.NewCond(&c.mu)

	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() domain.SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Select starts normalizing asset. Any earlier selection or submission still in
// flight is superseded and its result will be dropped. The returned channel is
// closed once this normalization has settled.
func (c *Controller) Select(asset domain.ImageAsset) <-chan struct{} {
	done := make(chan struct{})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(done)
		return done
	}

	c.epoch++
	epoch := c.epoch
	c.applyLocked(domain.Event{Kind: domain.ImageSelected}, nil)
	c.inflight++
	c.mu.Unlock()
	c.flush()

	c.l.Info().Str("source", asset.Source).Int("bytes", len(asset.Data)).Msg("normalizing selected image")

	go func() {
		defer c.finish(done)
		c.normalize(epoch, asset)
	}()

	return done
}

func (c *Controller) normalize(epoch uint64, asset domain.ImageAsset) {
	img, err := c.normalizer.Normalize(c.ctx, asset, c.maxWidth)

	c.mu.Lock()
	switch {
	case c.staleLocked(epoch):
		c.l.Debug().Uint64("epoch", epoch).Msg("dropping superseded normalization")
	case err != nil:
		c.l.Warn().Err(err).Str("source", asset.Source).Msg("normalization failed")
		c.applyLocked(domain.Event{Kind: domain.NormalizationFailed, Err: err}, err)
	default:
		c.l.Debug().Int("width", img.Width).Int("height", img.Height).Int("bytes", len(img.Data)).
			Msg("image normalized")
		c.applyLocked(domain.Event{Kind: domain.ImageNormalized, Image: &img}, nil)
	}
	c.mu.Unlock()

	c.flush()
}

// Remove discards the selected image.
func (c *Controller) Remove() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.epoch++
	c.applyLocked(domain.Event{Kind: domain.ImageRemoved}, nil)
	c.mu.Unlock()

	c.flush()
}

// Generate submits the ready image. The returned channel is closed once the
// submission has settled. It returns domain.ErrNoImage or
// domain.ErrSubmissionInFlight without side effects when the request is not
// valid in the current state.
func (c *Controller) Generate() (<-chan struct{}, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrInvalidTransition
	}

	next, err := c.state.Apply(domain.Event{Kind: domain.GenerateRequested})
	if err != nil {
		phase := c.state.Phase
		c.mu.Unlock()
		c.l.Debug().Err(err).Str("phase", phase.String()).Msg("generate rejected")
		return nil, err
	}

	c.epoch++
	epoch := c.epoch
	c.setLocked(next, nil)
	img := next.Image
	c.inflight++
	c.mu.Unlock()
	c.flush()

	done := make(chan struct{})
	go func() {
		defer c.finish(done)
		c.submit(epoch, img)
	}()

	return done, nil
}

func (c *Controller) submit(epoch uint64, img *domain.NormalizedImage) {
	id, err := uuid.NewV4()
	if err != nil {
		c.l.Warn().Err(err).Msg("could not generate submission id")
	}

	l := c.l.With().Str("submissionId", id.String()).Logger()
	l.Info().Int("bytes", len(img.Data)).Msg("submitting image for critique")

	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	payload := c.encoder.Encode(img.Data)
	critique, err := c.analyzer.Analyze(ctx, payload)

	c.mu.Lock()
	switch {
	case c.staleLocked(epoch):
		l.Debug().Msg("dropping superseded analysis result")
	case err != nil:
		ev := l.Error().Err(err).Dur("took", time.Since(start))
		var reqErr *domain.RequestError
		if errors.As(err, &reqErr) {
			ev = ev.Int("status", reqErr.StatusCode)
		}
		ev.Msg("critique request failed")

		c.applyLocked(domain.Event{Kind: domain.AnalysisFailed, Err: err}, nil)
	default:
		l.Info().Dur("took", time.Since(start)).Int("length", len(critique)).Msg("critique received")
		c.applyLocked(domain.Event{Kind: domain.AnalysisSucceeded, Critique: critique}, nil)
	}
	c.mu.Unlock()

	c.flush()
}

// Close detaches the controller. Work still in flight finishes but its results
// are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.epoch++
}

// Wait blocks until no operation is in flight. It is safe to call
// concurrently with Select and Generate.
func (c *Controller) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.inflight > 0 {
		c.idle.Wait()
	}
}

func (c *Controller) finish(done chan struct{}) {
	c.mu.Lock()
	c.inflight--
	if c.inflight == 0 {
		c.idle.Broadcast()
	}
	c.mu.Unlock()

	close(done)
}

func (c *Controller) staleLocked(epoch uint64) bool {
	return c.closed || epoch != c.epoch
}

func (c *Controller) applyLocked(e domain.Event, surfaced error) {
	next, err := c.state.Apply(e)
	if err != nil {
		c.l.Warn().Err(err).Str("event", e.Kind.String()).Str("phase", c.state.Phase.String()).
			Msg("event rejected")
		return
	}

	c.setLocked(next, surfaced)
}

func (c *Controller) setLocked(next domain.SubmissionState, surfaced error) {
	prev := c.state
	c.state = next

	if prev == next && surfaced == nil {
		return
	}

	c.l.Debug().Str("from", prev.Phase.String()).Str("to", next.Phase.String()).Msg("state changed")

	if c.observer != nil {
		c.updates = append(c.updates, update{state: next, err: surfaced})
	}
}

// flush hands queued updates to the observer in the order they were queued.
// It returns once every update queued before the call has been delivered.
func (c *Controller) flush() {
	if c.observer == nil {
		return
	}

	c.deliver.Lock()
	defer c.deliver.Unlock()

	for {
		c.mu.Lock()
		if len(c.updates) == 0 {
			c.mu.Unlock()
			return
		}
		u := c.updates[0]
		c.updates[0] = update{}
		c.updates = c.updates[1:]
		c.mu.Unlock()

		c.observer(u.state, u.err)
	}
}

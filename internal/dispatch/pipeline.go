// Package dispatch runs the engine's single consumer loop: action
// requests, invalidation events and command confirmations arrive on
// one queue and are handled strictly in order, one at a time.
package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hemebond/PyWO/internal/actions"
	"github.com/hemebond/PyWO/internal/filter"
	"github.com/hemebond/PyWO/internal/geometry"
	"github.com/hemebond/PyWO/internal/platform"
)

// Result reports the outcome of one dispatched request to observers.
type Result struct {
	RequestID string
	Kind      string
	Source    string
	Windows   []platform.WindowID
	Err       error
	Elapsed   time.Duration
}

// Stats are live dispatch counters, readable from any goroutine.
type Stats struct {
	Dispatched uint64
	Failed     uint64
	Dropped    uint64
	QueueLen   int
}

// message is one queue entry; exactly one field is set.
type message struct {
	req     *actions.Request
	event   *platform.Event
	confirm *confirmation
	reset   *geometry.Grid
}

// confirmation is the backend's verdict on one issued command.
type confirmation struct {
	window     platform.WindowID
	generation uint64
	requestID  string
	err        error
}

// Options tune the pipeline. Zero values pick the defaults.
type Options struct {
	Grid            geometry.Grid
	QueueSize       int
	JanitorInterval time.Duration
	DedupeWindow    time.Duration
}

// Pipeline owns the dispatch loop. All mutable dispatch state, the
// resolver included, belongs to the Run goroutine; producers only
// ever touch the queue.
type Pipeline struct {
	backend platform.Backend
	queue   chan message
	quit    chan struct{}
	done    chan struct{}

	janitorInterval time.Duration
	dedupeWindow    time.Duration

	// Owned by the Run goroutine.
	resolver   *actions.Resolver
	generation uint64
	inflight   map[platform.WindowID]uint64
	seen       map[string]time.Time

	dispatched atomic.Uint64
	failed     atomic.Uint64
	dropped    atomic.Uint64

	obsMu     sync.Mutex
	observers map[int]func(Result)
	nextObs   int
}

// New builds a pipeline over the backend. Run must be called before
// the queue is serviced.
func New(backend platform.Backend, opts Options) *Pipeline {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.JanitorInterval <= 0 {
		opts.JanitorInterval = 30 * time.Second
	}
	if opts.DedupeWindow <= 0 {
		opts.DedupeWindow = time.Minute
	}
	return &Pipeline{
		backend:         backend,
		queue:           make(chan message, opts.QueueSize),
		quit:            make(chan struct{}),
		done:            make(chan struct{}),
		janitorInterval: opts.JanitorInterval,
		dedupeWindow:    opts.DedupeWindow,
		resolver:        actions.NewResolver(opts.Grid),
		inflight:        make(map[platform.WindowID]uint64),
		seen:            make(map[string]time.Time),
		observers:       make(map[int]func(Result)),
	}
}

// Enqueue queues a stamped request. It never blocks; when the queue
// is full the request is dropped and an error returned.
func (p *Pipeline) Enqueue(req actions.Request) error {
	select {
	case p.queue <- message{req: &req}:
		return nil
	default:
		p.dropped.Add(1)
		return fmt.Errorf("dispatch queue full, dropping %s", req)
	}
}

// HandleEvent feeds a backend change event into the queue. It is safe
// to call from the event loop goroutine; a full queue drops the event
// and the janitor sweep repairs any missed invalidation later.
func (p *Pipeline) HandleEvent(ev platform.Event) {
	select {
	case p.queue <- message{event: &ev}:
	default:
		p.dropped.Add(1)
		log.Debug("Event queue full, dropping [", ev.Kind, "]")
	}
}

// Reset replaces all remembered dispatch state, using grid as the new
// default. Called after a config reload.
func (p *Pipeline) Reset(grid geometry.Grid) {
	select {
	case p.queue <- message{reset: &grid}:
	case <-p.quit:
	}
}

// Subscribe registers an observer for dispatch results. Observers run
// on the dispatch goroutine and must return quickly. The returned
// function cancels the subscription.
func (p *Pipeline) Subscribe(fn func(Result)) func() {
	p.obsMu.Lock()
	defer p.obsMu.Unlock()
	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn
	return func() {
		p.obsMu.Lock()
		defer p.obsMu.Unlock()
		delete(p.observers, id)
	}
}

// Stats returns a snapshot of the dispatch counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Dispatched: p.dispatched.Load(),
		Failed:     p.failed.Load(),
		Dropped:    p.dropped.Load(),
		QueueLen:   len(p.queue),
	}
}

// Run services the queue until Stop. One message is handled start to
// finish before the next is read.
func (p *Pipeline) Run() {
	ticker := time.NewTicker(p.janitorInterval)
	defer ticker.Stop()

	log.Info("Dispatch loop started [queue ", cap(p.queue), "]")
	for {
		select {
		case <-p.quit:
			log.Info("Dispatch loop stopped")
			close(p.done)
			return
		case msg := <-p.queue:
			switch {
			case msg.req != nil:
				p.dispatch(*msg.req)
			case msg.event != nil:
				p.invalidate(*msg.event)
			case msg.confirm != nil:
				p.settle(*msg.confirm)
			case msg.reset != nil:
				p.resetState(*msg.reset)
			}
		case <-ticker.C:
			p.sweep()
		}
	}
}

// Stop ends the dispatch loop and waits for it to drain the message
// in progress.
func (p *Pipeline) Stop() {
	close(p.quit)
	<-p.done
}

// dispatch resolves one request against a fresh capture and issues
// the resulting commands.
func (p *Pipeline) dispatch(req actions.Request) {
	start := time.Now()

	fp := req.Fingerprint()
	if _, dup := p.seen[fp]; dup {
		log.Debug("Skipping redelivered request [", req.ID, "]")
		return
	}
	p.seen[fp] = req.Time

	snaps, err := p.backend.ListWindows()
	if err != nil {
		p.fail(req, start, fmt.Errorf("listing windows: %w", err))
		return
	}
	viewport, err := p.backend.Viewport()
	if err != nil {
		p.fail(req, start, fmt.Errorf("reading viewport: %w", err))
		return
	}
	desktop, err := p.backend.CurrentDesktop()
	if err != nil {
		p.fail(req, start, fmt.Errorf("reading current desktop: %w", err))
		return
	}

	cmds, err := p.resolver.Resolve(req, snaps, viewport, filter.Context{CurrentDesktop: desktop})
	if err != nil {
		log.Info("Rejected ", req.Kind, " [", err, "]")
		p.failed.Add(1)
		p.notify(Result{RequestID: req.ID, Kind: req.Kind.String(), Source: req.Source, Err: err, Elapsed: time.Since(start)})
		return
	}

	windows := make([]platform.WindowID, 0, len(cmds))
	for _, cmd := range cmds {
		p.generation++
		p.inflight[cmd.Window] = p.generation
		go p.await(cmd.Window, p.generation, req.ID, p.backend.Apply(cmd))
		windows = append(windows, cmd.Window)
	}

	p.dispatched.Add(1)
	log.Debug("Dispatched ", req.Kind, " [", req.ID, "] to ", len(cmds), " windows")
	p.notify(Result{RequestID: req.ID, Kind: req.Kind.String(), Source: req.Source, Windows: windows, Elapsed: time.Since(start)})
}

func (p *Pipeline) fail(req actions.Request, start time.Time, err error) {
	log.Error("Dispatch aborted [", err, "]")
	p.failed.Add(1)
	p.notify(Result{RequestID: req.ID, Kind: req.Kind.String(), Source: req.Source, Err: err, Elapsed: time.Since(start)})
}

// await forwards the backend verdict for one command back onto the
// queue, tagged with the generation that issued it.
func (p *Pipeline) await(window platform.WindowID, generation uint64, requestID string, ch <-chan error) {
	err := <-ch
	select {
	case p.queue <- message{confirm: &confirmation{window: window, generation: generation, requestID: requestID, err: err}}:
	case <-p.quit:
	}
}

// settle consumes a confirmation. Only the verdict for the newest
// command per window counts; older generations lost the window to a
// later writer and are dropped without noise.
func (p *Pipeline) settle(c confirmation) {
	current, ok := p.inflight[c.window]
	if !ok || current != c.generation {
		log.Debug("Superseded confirmation for window ", c.window)
		return
	}
	delete(p.inflight, c.window)

	switch {
	case c.err == nil:
	case errors.Is(c.err, platform.ErrStaleReference):
		log.Debug("Window ", c.window, " vanished before the command landed")
	default:
		p.failed.Add(1)
		log.Error("Command on window ", c.window, " failed [", c.err, "]")
	}
}

// invalidate reacts to a backend change event. Events never produce
// commands; they only discard state that refers to gone windows.
func (p *Pipeline) invalidate(ev platform.Event) {
	switch ev.Kind {
	case platform.EventWindowDestroyed:
		log.Debug("Window ", ev.Window, " destroyed, dropping its state")
		p.resolver.RemoveWindow(ev.Window)
		delete(p.inflight, ev.Window)
	case platform.EventWindowCreated:
		// Cycling orders notice the new window on their next use.
		log.Debug("Window ", ev.Window, " created")
	default:
		log.Debug("Event [", ev.Kind, "]")
	}
}

// sweep is the janitor pass: it prunes resolver and in-flight state
// for windows that vanished without a destroy event, and expires old
// dedupe fingerprints.
func (p *Pipeline) sweep() {
	cutoff := time.Now().Add(-p.dedupeWindow)
	for fp, seen := range p.seen {
		if seen.Before(cutoff) {
			delete(p.seen, fp)
		}
	}

	snaps, err := p.backend.ListWindows()
	if err != nil {
		log.Warn("Janitor skipped, window list unavailable [", err, "]")
		return
	}
	alive := make(map[platform.WindowID]bool, len(snaps))
	for _, s := range snaps {
		alive[s.ID] = true
	}
	p.resolver.Prune(alive)
	for id := range p.inflight {
		if !alive[id] {
			delete(p.inflight, id)
		}
	}
}

func (p *Pipeline) resetState(grid geometry.Grid) {
	log.Info("Dispatch state reset")
	p.resolver = actions.NewResolver(grid)
	p.inflight = make(map[platform.WindowID]uint64)
	p.seen = make(map[string]time.Time)
}

func (p *Pipeline) notify(r Result) {
	p.obsMu.Lock()
	defer p.obsMu.Unlock()
	for _, fn := range p.observers {
		fn(r)
	}
}

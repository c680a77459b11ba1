// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fake is an in-memory pluginrunner.Runner test double, grounded on
// teacher's internal/proxy/fake test-double pattern. It never touches a
// real plugin process; Init/Start outcomes and the terminal Completion are
// scripted by the test.
package fake

import (
	"context"
	"strconv"
	"sync"

	"github.com/ManuGH/syncd/internal/model"
	"github.com/ManuGH/syncd/internal/pluginrunner"
)

// Script describes one invocation's scripted behavior.
type Script struct {
	InitErr  error
	StartErr error
	// Completion is delivered on Done() once Finish is called (or
	// immediately on Start, if AutoComplete is set).
	Completion   pluginrunner.Completion
	AutoComplete bool
}

// DefaultScript succeeds at Init and Start; the caller must call Finish to
// deliver a terminal Completion.
func DefaultScript() *Script {
	return &Script{Completion: pluginrunner.Completion{Status: model.StatusDone, Minor: model.ReasonNone}}
}

// Runner is a pluginrunner.Runner test double keyed by Handle.
type Runner struct {
	mu            sync.Mutex
	next          int
	queued        []*Script
	scripts       map[pluginrunner.Handle]*Script
	progress      map[pluginrunner.Handle]chan model.Event
	done          map[pluginrunner.Handle]chan pluginrunner.Completion
	stopped       map[pluginrunner.Handle]bool
}

// New returns an empty Runner. Script the next Init call via Program, or
// rely on DefaultScript's success path.
func New() *Runner {
	return &Runner{
		scripts:  make(map[pluginrunner.Handle]*Script),
		progress: make(map[pluginrunner.Handle]chan model.Event),
		done:     make(map[pluginrunner.Handle]chan pluginrunner.Completion),
		stopped:  make(map[pluginrunner.Handle]bool),
	}
}

var _ pluginrunner.Runner = (*Runner)(nil)

// Program queues s to back the next Init call (FIFO), letting a test script
// a sequence of distinct outcomes across several sessions.
func (r *Runner) Program(s *Script) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, s)
}

func (r *Runner) Init(ctx context.Context, p model.Profile) (pluginrunner.Handle, error) {
	r.mu.Lock()
	r.next++
	h := pluginrunner.Handle(p.Name + "#" + strconv.Itoa(r.next))
	var s *Script
	if len(r.queued) > 0 {
		s = r.queued[0]
		r.queued = r.queued[1:]
	} else {
		s = DefaultScript()
	}
	r.scripts[h] = s
	r.progress[h] = make(chan model.Event, 8)
	r.done[h] = make(chan pluginrunner.Completion, 1)
	r.mu.Unlock()

	if s.InitErr != nil {
		return h, s.InitErr
	}
	return h, nil
}

func (r *Runner) Start(ctx context.Context, h pluginrunner.Handle) error {
	r.mu.Lock()
	s := r.scripts[h]
	r.mu.Unlock()
	if s == nil {
		return nil
	}
	if s.StartErr != nil {
		return s.StartErr
	}
	if s.AutoComplete {
		r.Finish(h, s.Completion)
	}
	return nil
}

func (r *Runner) Stop(ctx context.Context, h pluginrunner.Handle) error {
	r.mu.Lock()
	r.stopped[h] = true
	r.mu.Unlock()
	return nil
}

func (r *Runner) Cleanup(ctx context.Context, h pluginrunner.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scripts, h)
}

func (r *Runner) Progress(h pluginrunner.Handle) <-chan model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress[h]
}

func (r *Runner) Done(h pluginrunner.Handle) <-chan pluginrunner.Completion {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done[h]
}

// Finish delivers the terminal completion for h.
func (r *Runner) Finish(h pluginrunner.Handle, c pluginrunner.Completion) {
	r.mu.Lock()
	ch := r.done[h]
	r.mu.Unlock()
	if ch != nil {
		ch <- c
	}
}

// WasStopped reports whether Stop was called for h.
func (r *Runner) WasStopped(h pluginrunner.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped[h]
}

// Emit delivers a progress event for h.
func (r *Runner) Emit(h pluginrunner.Handle, ev model.Event) {
	r.mu.Lock()
	ch := r.progress[h]
	r.mu.Unlock()
	if ch != nil {
		ch <- ev
	}
}

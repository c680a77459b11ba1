// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package backup implements BackupCoordinator: four one-shot signals
// (backupStart, backupDone, restoreStart, restoreDone) that the orchestrator
// consumes to inhibit syncing while a backup/restore is active, draining
// active sessions before replying (spec.md §4.6). Modeled as promise/
// one-shot channels, mirroring msyncd/SyncBackup.cpp's D-Bus delayed-reply
// handling and teacher's pattern of holding a reply channel open across an
// async operation (Orchestrator.Run's guardFail channel idiom).
package backup

import "context"

// Kind distinguishes a backup drain from a restore drain for metrics and
// logging; the drain/resume protocol itself is identical for both.
type Kind string

const (
	KindBackup  Kind = "backup"
	KindRestore Kind = "restore"
)

// Request is delivered to the orchestrator when a backup or restore begins.
// Reply must be closed (or sent to) once the orchestrator has drained to
// zero active sessions, unblocking the original caller's delayed D-Bus-style
// reply.
type Request struct {
	Kind  Kind
	Reply chan<- struct{}
}

// Coordinator is the channel-based mailbox the orchestrator polls inside
// its single event loop (spec.md §5: "Delayed D-Bus replies for backup/
// restore — the orchestrator holds the reply handle until the drain/resume
// completes").
type Coordinator struct {
	starts chan Request
	dones  chan Request

	active bool
}

// New returns an idle Coordinator.
func New() *Coordinator {
	return &Coordinator{
		starts: make(chan Request, 4),
		dones:  make(chan Request, 4),
	}
}

// Starts returns the channel the orchestrator selects on for incoming
// backup/restore start requests.
func (c *Coordinator) Starts() <-chan Request {
	return c.starts
}

// Dones returns the channel the orchestrator selects on for incoming
// backup/restore finish requests.
func (c *Coordinator) Dones() <-chan Request {
	return c.dones
}

// RequestStart is called by an external caller (e.g. the IPC layer) to
// begin a backup or restore; it blocks until the orchestrator has drained
// to zero active sessions and closed reply.
func (c *Coordinator) RequestStart(ctx context.Context, kind Kind) error {
	reply := make(chan struct{})
	select {
	case c.starts <- Request{Kind: kind, Reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestDone is called once the external backup/restore operation itself
// has finished; it blocks until the orchestrator has fully resumed
// (scheduler re-armed, servers restarted) and closed reply.
func (c *Coordinator) RequestDone(ctx context.Context, kind Kind) error {
	reply := make(chan struct{})
	select {
	case c.dones <- Request{Kind: kind, Reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active reports whether the orchestrator currently considers a
// backup/restore in progress. Only the orchestrator goroutine mutates this;
// it is not safe for concurrent external callers.
func (c *Coordinator) Active() bool {
	return c.active
}

// SetActive is called by the orchestrator when it accepts or resolves a
// drain/resume cycle.
func (c *Coordinator) SetActive(v bool) {
	c.active = v
}

// Resolve replies to req, unblocking its caller.
func Resolve(req Request) {
	if req.Reply != nil {
		close(req.Reply)
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"

	"github.com/ManuGH/syncd/internal/model"
)

// StartSync is the public entry point backing the IPC surface's
// startSync(profileName) -> bool (spec.md §6). Concurrent callers for the
// same profile are coalesced through singleflight, resolving spec.md §9's
// "concurrent manual+queued semantics... narrow window" open question by
// treating the first caller's in-flight request as the answer for the rest.
func (s *Synchronizer) StartSync(ctx context.Context, profileName string) (bool, error) {
	v, err, _ := s.sf.Do("start:"+profileName, func() (any, error) {
		c := cmd{kind: cmdStart, profileName: profileName, reply: make(chan cmdResult, 1)}
		if err := s.send(ctx, c); err != nil {
			return false, err
		}
		r := s.await(ctx, c.reply)
		return r.ok, r.err
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// AbortSync backs the IPC surface's abortSync(profileName).
func (s *Synchronizer) AbortSync(ctx context.Context, profileName string) error {
	c := cmd{kind: cmdAbort, profileName: profileName, reply: make(chan cmdResult, 1)}
	if err := s.send(ctx, c); err != nil {
		return err
	}
	r := s.await(ctx, c.reply)
	return r.err
}

// ConnectivityChanged backs connectivity.Tracker's onChange callback.
func (s *Synchronizer) ConnectivityChanged(ctx context.Context, online bool, connType model.InternetType) {
	c := cmd{kind: cmdConnectivityChanged, online: online, connType: connType, reply: make(chan cmdResult, 1)}
	if err := s.send(ctx, c); err != nil {
		return
	}
	s.await(ctx, c.reply)
}

// ProfileChanged backs the IPC/accounts-framework profileChanged(name, kind,
// xml) notification (spec.md §4.4).
func (s *Synchronizer) ProfileChanged(ctx context.Context, name, kind, xml string) error {
	c := cmd{kind: cmdProfileChanged, profileName: name, changeKind: kind, changeXML: xml, reply: make(chan cmdResult, 1)}
	if err := s.send(ctx, c); err != nil {
		return err
	}
	return s.await(ctx, c.reply).err
}

// GetRunningSyncList backs getRunningSyncList() -> [profileName].
func (s *Synchronizer) GetRunningSyncList(ctx context.Context) ([]string, error) {
	c := cmd{kind: cmdRunningSyncList, reply: make(chan cmdResult, 1)}
	if err := s.send(ctx, c); err != nil {
		return nil, err
	}
	r := s.await(ctx, c.reply)
	return r.names, r.err
}

// GetLastSyncResult backs getLastSyncResult(profileName) -> xml, reporting
// whether the profile exists in the profile store.
func (s *Synchronizer) GetLastSyncResult(ctx context.Context, profileName string) (model.Profile, bool, error) {
	c := cmd{kind: cmdLastSyncResult, profileName: profileName, reply: make(chan cmdResult, 1)}
	if err := s.send(ctx, c); err != nil {
		return model.Profile{}, false, err
	}
	r := s.await(ctx, c.reply)
	return r.profile, r.found, r.err
}

// InboundConnection backs the inbound (server) session path: a peer
// connected to us identified by address/displayName, to be matched against
// candidate profiles per spec.md §4.4's tie-break rule.
func (s *Synchronizer) InboundConnection(ctx context.Context, peerAddress, peerDisplayName string) error {
	c := cmd{kind: cmdInboundConnection, peerAddress: peerAddress, peerDisplayName: peerDisplayName, reply: make(chan cmdResult, 1)}
	if err := s.send(ctx, c); err != nil {
		return err
	}
	return s.await(ctx, c.reply).err
}

// SetSyncSchedule backs setSyncSchedule(profileName, xml) -> bool (spec.md
// §6): xml carries only the schedule fields to merge onto the stored
// profile.
func (s *Synchronizer) SetSyncSchedule(ctx context.Context, profileName, xml string) (bool, error) {
	c := cmd{kind: cmdSetSyncSchedule, profileName: profileName, changeXML: xml, reply: make(chan cmdResult, 1)}
	if err := s.send(ctx, c); err != nil {
		return false, err
	}
	r := s.await(ctx, c.reply)
	return r.ok, r.err
}

// SaveSyncResults backs saveSyncResults(profileName, xml) -> bool.
func (s *Synchronizer) SaveSyncResults(ctx context.Context, profileName, xml string) (bool, error) {
	c := cmd{kind: cmdSaveSyncResults, profileName: profileName, changeXML: xml, reply: make(chan cmdResult, 1)}
	if err := s.send(ctx, c); err != nil {
		return false, err
	}
	r := s.await(ctx, c.reply)
	return r.ok, r.err
}

// VisibleProfiles backs requestAllVisibleSyncProfiles() -> [xml].
func (s *Synchronizer) VisibleProfiles(ctx context.Context) ([]model.Profile, error) {
	c := cmd{kind: cmdVisibleProfiles, reply: make(chan cmdResult, 1)}
	if err := s.send(ctx, c); err != nil {
		return nil, err
	}
	r := s.await(ctx, c.reply)
	return r.profiles, r.err
}

// ProfilesByKey backs requestSyncProfilesByKey(key, value) -> [xml].
func (s *Synchronizer) ProfilesByKey(ctx context.Context, key, value string) ([]model.Profile, error) {
	c := cmd{kind: cmdProfilesByKey, key: key, value: value, reply: make(chan cmdResult, 1)}
	if err := s.send(ctx, c); err != nil {
		return nil, err
	}
	r := s.await(ctx, c.reply)
	return r.profiles, r.err
}

// ProfilesByType backs requestProfilesByType(type) -> [xml].
func (s *Synchronizer) ProfilesByType(ctx context.Context, profileType string) ([]model.Profile, error) {
	c := cmd{kind: cmdProfilesByType, profileType: profileType, reply: make(chan cmdResult, 1)}
	if err := s.send(ctx, c); err != nil {
		return nil, err
	}
	r := s.await(ctx, c.reply)
	return r.profiles, r.err
}

func (s *Synchronizer) send(ctx context.Context, c cmd) error {
	select {
	case s.cmds <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Synchronizer) await(ctx context.Context, replyCh chan cmdResult) cmdResult {
	select {
	case r := <-replyCh:
		return r
	case <-ctx.Done():
		return cmdResult{err: ctx.Err()}
	}
}

func (s *Synchronizer) handleRunningSyncList(c cmd) {
	names := make([]string, 0, len(s.sessions))
	for name := range s.sessions {
		names = append(names, name)
	}
	reply(c, cmdResult{ok: true, names: names})
}

func (s *Synchronizer) handleLastSyncResult(c cmd) {
	p, ok := s.cfg.Profiles.Get(c.profileName)
	reply(c, cmdResult{ok: ok, found: ok, profile: p})
}

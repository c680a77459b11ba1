// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"

	"github.com/ManuGH/syncd/internal/model"
	"github.com/ManuGH/syncd/internal/profilecodec"
)

// handleSetSyncSchedule implements setSyncSchedule(profileName, xml) -> bool
// (spec.md §6): the incoming XML carries only the schedule fields the caller
// wants applied, decoded through profilecodec and merged onto the stored
// profile's Schedule. The scheduler is re-armed immediately so the new
// interval takes effect without waiting for the next fire.
func (s *Synchronizer) handleSetSyncSchedule(ctx context.Context, c cmd) {
	p, ok := s.cfg.Profiles.Get(c.profileName)
	if !ok {
		reply(c, cmdResult{ok: false, err: errf("unknown profile %q", c.profileName)})
		return
	}
	decoded, err := profilecodec.Unmarshal([]byte(c.changeXML))
	if err != nil {
		reply(c, cmdResult{ok: false, err: err})
		return
	}
	p.Schedule = decoded.Schedule
	if err := s.cfg.Profiles.Put(p); err != nil {
		reply(c, cmdResult{ok: false, err: err})
		return
	}
	if s.cfg.Scheduler != nil {
		_, _ = s.cfg.Scheduler.NextFire(&p, s.now())
	}
	s.publish(ctx, model.Event{Kind: model.EventProfileChanged, ProfileName: p.Name, ProfileChangeKind: "MODIFIED"})
	reply(c, cmdResult{ok: true})
}

// handleSaveSyncResults implements saveSyncResults(profileName, xml) -> bool
// (spec.md §6): the caller-supplied result XML is stored verbatim against
// the profile (e.g. results reported by an external, non-plugin sync) and a
// resultsAvailable event is published.
func (s *Synchronizer) handleSaveSyncResults(ctx context.Context, c cmd) {
	p, ok := s.cfg.Profiles.Get(c.profileName)
	if !ok {
		reply(c, cmdResult{ok: false, err: errf("unknown profile %q", c.profileName)})
		return
	}
	if p.Extra == nil {
		p.Extra = make(map[string]string, 1)
	}
	p.Extra["last_result_xml"] = c.changeXML
	p.LastSyncTime = s.now()
	if err := s.cfg.Profiles.Put(p); err != nil {
		reply(c, cmdResult{ok: false, err: err})
		return
	}
	s.publish(ctx, model.Event{Kind: model.EventResultsAvailable, ProfileName: p.Name, ProfileXML: c.changeXML})
	reply(c, cmdResult{ok: true})
}

// handleVisibleProfiles implements requestAllVisibleSyncProfiles() -> [xml].
func (s *Synchronizer) handleVisibleProfiles(c cmd) {
	var out []model.Profile
	for _, p := range s.cfg.Profiles.All() {
		if !p.Hidden {
			out = append(out, p)
		}
	}
	reply(c, cmdResult{ok: true, profiles: out})
}

// handleProfilesByKey implements requestSyncProfilesByKey(key, value) ->
// [xml], matching against Profile.Extra the same way matchingProfiles does
// for the inbound tie-break.
func (s *Synchronizer) handleProfilesByKey(c cmd) {
	var out []model.Profile
	for _, p := range s.cfg.Profiles.All() {
		if p.Extra[c.key] == c.value {
			out = append(out, p)
		}
	}
	reply(c, cmdResult{ok: true, profiles: out})
}

// handleProfilesByType implements requestProfilesByType(type) -> [xml],
// matching against Profile.DestinationType.
func (s *Synchronizer) handleProfilesByType(c cmd) {
	var out []model.Profile
	for _, p := range s.cfg.Profiles.All() {
		if string(p.DestinationType) == c.profileType {
			out = append(out, p)
		}
	}
	reply(c, cmdResult{ok: true, profiles: out})
}

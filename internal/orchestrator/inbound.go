// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ManuGH/syncd/internal/model"
)

// peerAddressKey is the Extra map key profiles carry their paired peer
// address under (spec.md §9: "temporary profile creation on inbound
// connection" matches candidates by this address).
const peerAddressKey = "peer-address"

// handleInboundConnection implements spec.md §4.4's inbound (server) session
// path: find every stored profile paired with peerAddress, break ties by
// (visible, enabled) descending, and fall back to synthesizing a temporary
// profile when nothing matches.
func (s *Synchronizer) handleInboundConnection(ctx context.Context, c cmd) {
	candidates := s.matchingProfiles(c.peerAddress)
	if len(candidates) == 0 {
		p := s.synthesizeInboundProfile(c.peerAddress, c.peerDisplayName)
		if err := s.cfg.Profiles.Put(p); err != nil {
			reply(c, cmdResult{ok: false, err: err})
			return
		}
		s.tryStartOrEnqueue(ctx, p, false)
		reply(c, cmdResult{ok: true, profile: p})
		return
	}
	p := candidates[0]
	s.tryStartOrEnqueue(ctx, p, false)
	reply(c, cmdResult{ok: true, profile: p})
}

// matchingProfiles returns every stored profile paired with peerAddress,
// ordered by the (visible, enabled) descending tie-break: a visible, enabled
// profile always wins over a hidden or disabled one.
func (s *Synchronizer) matchingProfiles(peerAddress string) []model.Profile {
	var out []model.Profile
	for _, p := range s.cfg.Profiles.All() {
		if p.Extra[peerAddressKey] == peerAddress {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := !out[i].Hidden, !out[j].Hidden
		if vi != vj {
			return vi // visible sorts before hidden
		}
		return out[i].Enabled && !out[j].Enabled
	})
	return out
}

// synthesizeInboundProfile creates the temporary, single-use profile
// spec.md §9 describes for an inbound connection with no matching stored
// profile: enabled, visible, and marked Created so it is dropped if the
// session that owns it is cancelled.
func (s *Synchronizer) synthesizeInboundProfile(peerAddress, peerDisplayName string) model.Profile {
	return model.Profile{
		Name:            "inbound-" + uuid.NewString(),
		Enabled:         true,
		DestinationType: model.DestinationOnline,
		Extra: map[string]string{
			peerAddressKey:      peerAddress,
			"peer-display-name": peerDisplayName,
		},
		Created: true,
	}
}

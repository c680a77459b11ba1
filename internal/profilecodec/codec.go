// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package profilecodec converts between model.Profile and the XML snapshot
// form used by the profile store and the requestAllVisibleSyncProfiles /
// profileChanged IPC surface (spec.md §6). The on-disk profile store format
// itself is out of scope (spec.md §1); this package only implements the
// round-trip codec at that boundary, using stdlib encoding/xml since no
// example repo in the pack carries a general-purpose XML templating
// library for arbitrary struct snapshots (see DESIGN.md).
package profilecodec

import (
	"encoding/xml"
	"sort"
	"time"

	"github.com/ManuGH/syncd/internal/model"
)

// ProfileSpec is the XML wire shape for one profile snapshot.
type ProfileSpec struct {
	XMLName xml.Name `xml:"profile"`

	Name              string `xml:"name,attr"`
	Enabled           bool   `xml:"enabled"`
	Hidden            bool   `xml:"hidden"`
	SyncType          string `xml:"syncType"`
	DestinationType   string `xml:"destinationType"`
	ClientProfileName string `xml:"clientProfileName"`

	StorageNames         []string `xml:"storageNames>storage"`
	AllowedInternetTypes []string `xml:"allowedInternetTypes>type,omitempty"`

	ScheduleIntervalSeconds int64 `xml:"schedule>intervalSeconds"`
	Rush                    *RushSpec `xml:"schedule>rush,omitempty"`

	LastSyncTimeUnix           int64 `xml:"lastSyncTime,omitempty"`
	LastSuccessfulSyncTimeUnix int64 `xml:"lastSuccessfulSyncTime,omitempty"`

	SyncExternallyEnabled    bool `xml:"syncExternallyEnabled"`
	SyncExternallyDuringRush bool `xml:"syncExternallyDuringRush"`

	Extra []ExtraEntry `xml:"extra>entry,omitempty"`
}

// RushSpec is the XML shape of a schedule's rush window.
type RushSpec struct {
	Weekdays           []int `xml:"weekday"`
	StartSeconds       int64 `xml:"startSeconds"`
	EndSeconds         int64 `xml:"endSeconds"`
	IntervalSeconds    int64 `xml:"intervalSeconds"`
}

// ExtraEntry is one key/value pair in Profile.Extra, XML-encoded since
// encoding/xml cannot marshal a Go map directly.
type ExtraEntry struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// Encode converts a profile snapshot to its XML wire form.
func Encode(p *model.Profile) ProfileSpec {
	spec := ProfileSpec{
		Name:                     p.Name,
		Enabled:                  p.Enabled,
		Hidden:                   p.Hidden,
		SyncType:                 string(p.SyncType),
		DestinationType:          string(p.DestinationType),
		ClientProfileName:        p.ClientProfileName,
		StorageNames:             append([]string(nil), p.StorageNames...),
		ScheduleIntervalSeconds:  int64(p.Schedule.Interval.Seconds()),
		SyncExternallyEnabled:    p.SyncExternallyEnabled,
		SyncExternallyDuringRush: p.SyncExternallyDuringRush,
	}
	for _, t := range p.AllowedInternetTypes {
		spec.AllowedInternetTypes = append(spec.AllowedInternetTypes, string(t))
	}
	if !p.LastSyncTime.IsZero() {
		spec.LastSyncTimeUnix = p.LastSyncTime.Unix()
	}
	if !p.LastSuccessfulSyncTime.IsZero() {
		spec.LastSuccessfulSyncTimeUnix = p.LastSuccessfulSyncTime.Unix()
	}
	if p.Schedule.HasRushWindow() {
		spec.Rush = encodeRush(&p.Schedule)
	}
	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		spec.Extra = append(spec.Extra, ExtraEntry{Key: k, Value: p.Extra[k]})
	}
	return spec
}

func encodeRush(s *model.Schedule) *RushSpec {
	weekdayList := s.RushWeekdays()
	start, end, interval := s.RushTimes()
	return &RushSpec{
		Weekdays:        weekdayList,
		StartSeconds:    int64(start.Seconds()),
		EndSeconds:      int64(end.Seconds()),
		IntervalSeconds: int64(interval.Seconds()),
	}
}

// Decode converts an XML wire profile back into a model.Profile.
func Decode(spec ProfileSpec) model.Profile {
	p := model.Profile{
		Name:                     spec.Name,
		Enabled:                  spec.Enabled,
		Hidden:                   spec.Hidden,
		SyncType:                 model.SyncType(spec.SyncType),
		DestinationType:          model.DestinationType(spec.DestinationType),
		ClientProfileName:        spec.ClientProfileName,
		StorageNames:             append([]string(nil), spec.StorageNames...),
		SyncExternallyEnabled:    spec.SyncExternallyEnabled,
		SyncExternallyDuringRush: spec.SyncExternallyDuringRush,
		Schedule: model.Schedule{
			Interval: time.Duration(spec.ScheduleIntervalSeconds) * time.Second,
		},
	}
	for _, t := range spec.AllowedInternetTypes {
		p.AllowedInternetTypes = append(p.AllowedInternetTypes, model.InternetType(t))
	}
	if spec.LastSyncTimeUnix != 0 {
		p.LastSyncTime = time.Unix(spec.LastSyncTimeUnix, 0).UTC()
	}
	if spec.LastSuccessfulSyncTimeUnix != 0 {
		p.LastSuccessfulSyncTime = time.Unix(spec.LastSuccessfulSyncTimeUnix, 0).UTC()
	}
	if spec.Rush != nil {
		p.Schedule.SetRushWindow(
			spec.Rush.Weekdays,
			time.Duration(spec.Rush.StartSeconds)*time.Second,
			time.Duration(spec.Rush.EndSeconds)*time.Second,
			time.Duration(spec.Rush.IntervalSeconds)*time.Second,
		)
	}
	if len(spec.Extra) > 0 {
		p.Extra = make(map[string]string, len(spec.Extra))
		for _, e := range spec.Extra {
			p.Extra[e.Key] = e.Value
		}
	}
	return p
}

// Marshal renders p as canonical indented XML.
func Marshal(p *model.Profile) ([]byte, error) {
	spec := Encode(p)
	return xml.MarshalIndent(spec, "", "  ")
}

// Unmarshal parses XML bytes into a model.Profile.
func Unmarshal(data []byte) (model.Profile, error) {
	var spec ProfileSpec
	if err := xml.Unmarshal(data, &spec); err != nil {
		return model.Profile{}, err
	}
	return Decode(spec), nil
}

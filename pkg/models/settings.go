package models

import (
	"maps"
	"slices"
)

// Setting keys understood by the translation service.
const (
	SettingTI        = "TI_on"
	SettingSC        = "SC_on"
	SettingConstants = "constants_on"
	SettingCoulomb   = "coulomb_on"
	SettingE         = "e_on"
	SettingI         = "i_on"
	SettingG         = "g_on"
)

// Settings is a flat set of named toggles forwarded verbatim to the server.
type Settings map[string]bool

// DefaultSettings returns the toggles used when nothing has been saved yet.
func DefaultSettings() Settings {
	return Settings{
		SettingTI:        true,
		SettingSC:        false,
		SettingConstants: true,
		SettingCoulomb:   false,
		SettingE:         false,
		SettingI:         false,
		SettingG:         false,
	}
}

// Clone returns an independent copy.
func (s Settings) Clone() Settings {
	if s == nil {
		return Settings{}
	}
	return maps.Clone(s)
}

// Keys returns the setting names in sorted order.
func (s Settings) Keys() []string {
	return slices.Sorted(maps.Keys(s))
}

// Normalize enforces that exactly one calculator target (TI or SC) is on.
// When both are on, TI wins; when neither is, TI is turned back on.
func (s Settings) Normalize() Settings {
	out := s.Clone()
	ti, sc := out[SettingTI], out[SettingSC]
	switch {
	case ti && sc:
		out[SettingSC] = false
	case !ti && !sc:
		out[SettingTI] = true
	}
	return out
}

// Toggle sets key to on and keeps the TI/SC pair mutually exclusive:
// enabling one turns the other off, disabling one turns the other on.
func (s Settings) Toggle(key string, on bool) Settings {
	out := s.Clone()
	out[key] = on
	switch key {
	case SettingTI:
		out[SettingSC] = !on
	case SettingSC:
		out[SettingTI] = !on
	}
	return out
}

// Apply overlays changes onto s. When changes names exactly one of TI_on and
// SC_on, the other is flipped to match as in Toggle.
func (s Settings) Apply(changes Settings) Settings {
	out := s.Clone()
	for k, v := range changes {
		out[k] = v
	}
	ti, hasTI := changes[SettingTI]
	sc, hasSC := changes[SettingSC]
	switch {
	case hasTI && !hasSC:
		out = out.Toggle(SettingTI, ti)
	case hasSC && !hasTI:
		out = out.Toggle(SettingSC, sc)
	}
	return out.Normalize()
}

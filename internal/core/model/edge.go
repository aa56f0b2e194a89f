package model

import "encoding/json"

// DefaultStrength is used when a relationship does not carry one.
const DefaultStrength = 0.5

// Relationship is a described, weighted link from Source to Target.
type Relationship struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Description string  `json:"description"`
	Attitude    *string `json:"attitude"`
	Strength    float64 `json:"strength"`
}

func (r Relationship) IsSelfLoop() bool {
	return r.Source == r.Target
}

// AttitudeText returns the attitude or "" when absent.
func (r Relationship) AttitudeText() string {
	if r.Attitude == nil {
		return ""
	}
	return *r.Attitude
}

// UnmarshalJSON defaults a missing strength to DefaultStrength.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	type plain Relationship
	aux := struct {
		*plain
		Strength *float64 `json:"strength"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Strength == nil {
		r.Strength = DefaultStrength
	} else {
		r.Strength = *aux.Strength
	}
	return nil
}

// NormalizeStrength maps a score into [0,1]. Scores in (1,10] are read as
// the 1-10 scale used at extraction time.
func NormalizeStrength(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s <= 1:
		return s
	case s <= 10:
		return s / 10
	default:
		return 1
	}
}

func StringPtr(s string) *string {
	return &s
}

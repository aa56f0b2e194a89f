package model

import "strings"

// TextChunk is one pre-chunked segment of source text.
type TextChunk struct {
	Avatar  string `json:"avatar"`
	Type    string `json:"type"`
	ChunkID int    `json:"chunk_id"`
	Text    string `json:"text"`
}

// ExtractedEntity is an entity as returned by the extraction prompt.
type ExtractedEntity struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Persona          string   `json:"persona"`
	StyleDescription string   `json:"style_description"`
	StyleExemplars   []string `json:"style_exemplars"`
	Description      string   `json:"description"`
}

// ExtractedRelation is a relation as returned by the extraction prompt,
// strength on a 1-10 scale.
type ExtractedRelation struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Description string  `json:"description"`
	Attitude    *string `json:"attitude"`
	Strength    float64 `json:"strength"`
}

type ExtractionResult struct {
	Entities  []ExtractedEntity   `json:"entities"`
	Relations []ExtractedRelation `json:"relations"`
}

func (e ExtractedEntity) ToEntity() Entity {
	name := strings.TrimSpace(e.Name)
	if strings.EqualFold(e.Type, string(KindCharacter)) {
		return NewCharacter(name, e.Persona, e.StyleDescription, e.StyleExemplars...)
	}
	return NewNonCharacter(name, e.Description)
}

func (r ExtractedRelation) ToRelationship() Relationship {
	strength := DefaultStrength
	if r.Strength != 0 {
		strength = NormalizeStrength(r.Strength)
	}
	var attitude *string
	if r.Attitude != nil && strings.TrimSpace(*r.Attitude) != "" {
		attitude = StringPtr(*r.Attitude)
	}
	return Relationship{
		Source:      strings.TrimSpace(r.Source),
		Target:      strings.TrimSpace(r.Target),
		Description: r.Description,
		Attitude:    attitude,
		Strength:    strength,
	}
}

package model

import "unicode/utf8"

// Kind tags an entity as a character or a non-character.
type Kind string

const (
	KindCharacter    Kind = "character"
	KindNonCharacter Kind = "non-character"
)

// Entity is a named node of the knowledge graph. Characters use Persona,
// StyleDescription, StyleExemplars and AvatarDetail; everything else uses
// Description.
type Entity struct {
	Name             string   `json:"name"`
	Kind             Kind     `json:"type"`
	Persona          string   `json:"persona,omitempty"`
	StyleDescription string   `json:"style_description,omitempty"`
	StyleExemplars   []string `json:"style_exemplars,omitempty"`
	AvatarDetail     string   `json:"avatarDetail,omitempty"`
	Description      string   `json:"description,omitempty"`
	// Stub marks entities created only because a relationship named them.
	Stub bool `json:"stub,omitempty"`
}

func NewCharacter(name, persona, style string, exemplars ...string) Entity {
	return Entity{
		Name:             name,
		Kind:             KindCharacter,
		Persona:          persona,
		StyleDescription: style,
		StyleExemplars:   exemplars,
	}
}

func NewNonCharacter(name, description string) Entity {
	return Entity{
		Name:        name,
		Kind:        KindNonCharacter,
		Description: description,
	}
}

func (e Entity) IsCharacter() bool {
	return e.Kind == KindCharacter
}

// Text is the representation indexed for similarity search.
func (e Entity) Text() string {
	if e.IsCharacter() {
		return e.Name + " " + e.Persona + " " + e.AvatarDetail
	}
	return e.Name + " " + e.Description
}

// Clone returns a deep copy.
func (e Entity) Clone() Entity {
	if e.StyleExemplars != nil {
		e.StyleExemplars = append([]string(nil), e.StyleExemplars...)
	}
	return e
}

// fieldRule merges one field of src into dst.
type fieldRule func(dst *Entity, src Entity)

func keepLonger(get func(*Entity) *string) fieldRule {
	return func(dst *Entity, src Entity) {
		d, s := get(dst), get(&src)
		if utf8.RuneCountInString(*s) > utf8.RuneCountInString(*d) {
			*d = *s
		}
	}
}

func unionExemplars(dst *Entity, src Entity) {
	seen := make(map[string]struct{}, len(dst.StyleExemplars))
	for _, ex := range dst.StyleExemplars {
		seen[ex] = struct{}{}
	}
	for _, ex := range src.StyleExemplars {
		if _, ok := seen[ex]; ok {
			continue
		}
		seen[ex] = struct{}{}
		dst.StyleExemplars = append(dst.StyleExemplars, ex)
	}
}

// mergeRules is the per-kind field merge table. The canonical entity's kind
// selects the row.
var mergeRules = map[Kind][]fieldRule{
	KindCharacter: {
		keepLonger(func(e *Entity) *string { return &e.Persona }),
		keepLonger(func(e *Entity) *string { return &e.StyleDescription }),
		keepLonger(func(e *Entity) *string { return &e.AvatarDetail }),
		unionExemplars,
	},
	KindNonCharacter: {
		keepLonger(func(e *Entity) *string { return &e.Description }),
	},
}

// Merge folds other into e. String fields keep the value with more
// characters and style
// exemplars become an ordered union with e's items first. Name and kind of e
// are kept.
func (e *Entity) Merge(other Entity) {
	rules, ok := mergeRules[e.Kind]
	if !ok {
		rules = mergeRules[KindNonCharacter]
	}
	for _, rule := range rules {
		rule(e, other)
	}
	if e.Stub && !other.Stub {
		e.Stub = false
	}
}

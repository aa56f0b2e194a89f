package model

type CommunityKind string

const (
	CharacterFocused CommunityKind = "character-focused"
	EventFocused     CommunityKind = "event-focused"
)

// Community is an immutable cluster of entity names with a summary.
type Community struct {
	ID      string        `json:"id"`
	Members []string      `json:"members"`
	Size    int           `json:"size"`
	Kind    CommunityKind `json:"type"`
	Summary string        `json:"summary"`
}

// Text is the representation indexed for similarity search.
func (c Community) Text() string {
	text := c.Summary
	for _, m := range c.Members {
		text += " " + m
	}
	return text
}

package model

// QueryKind selects which entities and communities a sub-query targets.
type QueryKind string

const (
	QueryCharacter QueryKind = "character"
	QueryEvent     QueryKind = "event"
)

// NotFoundNote marks a bundle that matched nothing.
const NotFoundNote = "no information found"

// SubQuery is one typed unit of a decomposed question. Lower priority values
// are more important.
type SubQuery struct {
	Text     string    `json:"text"`
	Kind     QueryKind `json:"type"`
	Priority int       `json:"priority"`
}

// Neighbor describes one adjacent node of an entity.
type Neighbor struct {
	Name         string  `json:"name"`
	Relationship string  `json:"relationship"`
	Attitude     *string `json:"attitude"`
	Strength     float64 `json:"strength"`
}

// EntitySnapshot is an entity's attributes plus its neighborhood.
type EntitySnapshot struct {
	Entity
	Neighbors []Neighbor `json:"neighbors"`
}

// RetrievedBundle is everything gathered for a single sub-query. It is the
// unit stored in the conversation cache.
type RetrievedBundle struct {
	SubQuery    string           `json:"subquery"`
	Kind        QueryKind        `json:"type"`
	Entities    []EntitySnapshot `json:"entities"`
	Communities []Community      `json:"communities"`
	NotFound    bool             `json:"not_found,omitempty"`
	Note        string           `json:"note,omitempty"`
}

func (b RetrievedBundle) IsEmpty() bool {
	return len(b.Entities) == 0 && len(b.Communities) == 0
}

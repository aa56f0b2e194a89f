package model

// ConversationTurn is one answered query.
type ConversationTurn struct {
	Query            string            `json:"query"`
	Response         string            `json:"response"`
	Summary          string            `json:"summary"`
	RetrievedContext []RetrievedBundle `json:"retrieved_context"`
}

package model

// DuplicateGroup is one canonical entity and the names folded into it.
type DuplicateGroup struct {
	Canonical  string   `json:"canonical"`
	Duplicates []string `json:"duplicates"`
}

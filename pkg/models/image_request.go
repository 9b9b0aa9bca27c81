package models

import "time"

type GeneralImageRequest struct {
	Name string `json:"name" param:"name"`
	Type string `json:"type" param:"type"`
}

type RatingImageRequest struct {
	Name  string `json:"name" param:"name"`
	Theme string `json:"theme" param:"theme"`
}

type MediaInfoImageRequest struct {
	Name  string `json:"name" param:"name"`
	Theme string `json:"theme" param:"theme"`
}

type ImageKind string

const (
	KindGeneral   ImageKind = "general"
	KindRating    ImageKind = "rating"
	KindMediaInfo ImageKind = "mediainfo"
)

// Lookup is one row of the lookup journal.
type Lookup struct {
	ID           int       `json:"id" db:"id"`
	Kind         ImageKind `json:"kind" db:"kind"`
	Theme        string    `json:"theme" db:"theme"`
	Name         string    `json:"name" db:"name"`
	ResolvedPath string    `json:"resolved_path" db:"resolved_path"`
	Found        bool      `json:"found" db:"found"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// MissingImage is published when a themed lookup exhausts every folder.
type MissingImage struct {
	ID         string    `json:"id"`
	Kind       ImageKind `json:"kind"`
	Theme      string    `json:"theme"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}

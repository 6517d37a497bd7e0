/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package models

import (
	"github.com/go-openapi/strfmt"

	"github.com/ragamala/catalogstore/normalize"
)

// Versioned carries the wiki-style lifecycle fields shared by every
// versioned catalog entity. Exactly one row per id is the authoritative
// latest; historical versions are immutable once superseded.
type Versioned struct {
	ID              string          `dynamodbav:"id" json:"id"`
	Version         int             `dynamodbav:"version" json:"version"`
	IsLatest        bool            `dynamodbav:"isLatest" json:"isLatest"`
	CreatedAt       strfmt.DateTime `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt       strfmt.DateTime `dynamodbav:"updatedAt" json:"updatedAt"`
	AddedBy         string          `dynamodbav:"addedBy" json:"addedBy"`
	EditedBy        []string        `dynamodbav:"editedBy" json:"editedBy"`
	ViewCount       int64           `dynamodbav:"viewCount" json:"viewCount"`
	FavoriteCount   int64           `dynamodbav:"favoriteCount" json:"favoriteCount"`
	PopularityScore int64           `dynamodbav:"popularityScore" json:"popularityScore"`
}

// Header exposes the shared lifecycle fields through any embedding entity.
func (v *Versioned) Header() *Versioned { return v }

// prepare sets the creation-time invariants: version 1, latest, creator as
// first editor, createdAt == updatedAt.
func (v *Versioned) prepare(id string, now strfmt.DateTime) {
	if v.ID == "" {
		v.ID = id
	}
	v.Version = 1
	v.IsLatest = true
	v.CreatedAt = now
	v.UpdatedAt = now
	if v.AddedBy != "" {
		v.EditedBy = []string{v.AddedBy}
	}
}

// RecordEdit bumps updatedAt and appends the editor unless it is already the
// last entry. createdAt is never touched after creation.
func (v *Versioned) RecordEdit(editor string, now strfmt.DateTime) {
	v.UpdatedAt = now
	if editor == "" {
		return
	}
	if n := len(v.EditedBy); n > 0 && v.EditedBy[n-1] == editor {
		return
	}
	v.EditedBy = append(v.EditedBy, editor)
}

// Composition is one cataloged musical work.
type Composition struct {
	Versioned
	Title     string `dynamodbav:"title" json:"title"`
	Tradition string `dynamodbav:"tradition,omitempty" json:"tradition,omitempty"`
	Language  string `dynamodbav:"language,omitempty" json:"language,omitempty"`
	RagaID    string `dynamodbav:"ragaId,omitempty" json:"ragaId,omitempty"`
	TalaID    string `dynamodbav:"talaId,omitempty" json:"talaId,omitempty"`
	Lyrics    string `dynamodbav:"lyrics,omitempty" json:"lyrics,omitempty"`
}

// PrepareForCreate normalizes caller-supplied text and sets the creation
// invariants. Invoked by the repository before the conditional write.
func (c *Composition) PrepareForCreate(id string, now strfmt.DateTime) {
	c.Title = normalize.Text(c.Title)
	c.Tradition = normalize.Text(c.Tradition)
	c.Language = normalize.Language(c.Language)
	c.prepare(id, now)
}

// Artist is a composer or performer entry.
type Artist struct {
	Versioned
	Name      string `dynamodbav:"name" json:"name"`
	Tradition string `dynamodbav:"tradition,omitempty" json:"tradition,omitempty"`
	Era       string `dynamodbav:"era,omitempty" json:"era,omitempty"`
	Place     string `dynamodbav:"place,omitempty" json:"place,omitempty"`
}

func (a *Artist) PrepareForCreate(id string, now strfmt.DateTime) {
	a.Name = normalize.Text(a.Name)
	a.Tradition = normalize.Text(a.Tradition)
	a.prepare(id, now)
}

// Raga is a melodic framework entry.
type Raga struct {
	Versioned
	Name      string `dynamodbav:"name" json:"name"`
	Tradition string `dynamodbav:"tradition,omitempty" json:"tradition,omitempty"`
	Melakarta int    `dynamodbav:"melakarta,omitempty" json:"melakarta,omitempty"`
	Arohana   string `dynamodbav:"arohana,omitempty" json:"arohana,omitempty"`
	Avarohana string `dynamodbav:"avarohana,omitempty" json:"avarohana,omitempty"`
}

func (r *Raga) PrepareForCreate(id string, now strfmt.DateTime) {
	r.Name = normalize.Text(r.Name)
	r.Tradition = normalize.Text(r.Tradition)
	r.prepare(id, now)
}

// Tala is a rhythmic cycle entry.
type Tala struct {
	Versioned
	Name      string `dynamodbav:"name" json:"name"`
	Tradition string `dynamodbav:"tradition,omitempty" json:"tradition,omitempty"`
	Beats     int    `dynamodbav:"beats,omitempty" json:"beats,omitempty"`
}

func (t *Tala) PrepareForCreate(id string, now strfmt.DateTime) {
	t.Name = normalize.Text(t.Name)
	t.Tradition = normalize.Text(t.Tradition)
	t.prepare(id, now)
}

// Attribution type and confidence values.
const (
	AttributionPrimary     = "primary"
	AttributionDisputed    = "disputed"
	AttributionAlternative = "alternative"
	AttributionTraditional = "traditional"

	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Attribution links a composition to a contributing artist. Keyed by the
// (compositionId, artistId) pair; the relation is many-to-many.
type Attribution struct {
	CompositionID   string          `dynamodbav:"compositionId" json:"compositionId"`
	ArtistID        string          `dynamodbav:"artistId" json:"artistId"`
	AttributionType string          `dynamodbav:"attributionType" json:"attributionType"`
	Confidence      string          `dynamodbav:"confidence" json:"confidence"`
	AddedBy         string          `dynamodbav:"addedBy" json:"addedBy"`
	CreatedAt       strfmt.DateTime `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt       strfmt.DateTime `dynamodbav:"updatedAt" json:"updatedAt"`
	// VerifiedBy is an append-only, deduplicated ordered set of user ids.
	VerifiedBy []string `dynamodbav:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
}

func (a *Attribution) PrepareForCreate(_ string, now strfmt.DateTime) {
	a.CreatedAt = now
	a.UpdatedAt = now
}

// Verify appends a verifier unless already present. Idempotent.
func (a *Attribution) Verify(verifierID string) bool {
	for _, v := range a.VerifiedBy {
		if v == verifierID {
			return false
		}
	}
	a.VerifiedBy = append(a.VerifiedBy, verifierID)
	return true
}

/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package models

import (
	"github.com/ragamala/catalogstore/keys"
	"github.com/ragamala/catalogstore/registry"
)

// Key bindings implement the static GSI slot contract per kind. Historical
// version rows carry no GSI slots, so secondary indexes only ever see the
// authoritative latest row of each entity.

func init() {
	registry.RegisterBinding(registry.Binding[Composition]{Kind: keys.KindComposition, Keys: compositionKeys})
	registry.RegisterBinding(registry.Binding[Artist]{Kind: keys.KindArtist, Keys: artistKeys})
	registry.RegisterBinding(registry.Binding[Raga]{Kind: keys.KindRaga, Keys: ragaKeys})
	registry.RegisterBinding(registry.Binding[Tala]{Kind: keys.KindTala, Keys: talaKeys})
	registry.RegisterBinding(registry.Binding[Attribution]{Kind: keys.KindAttribution, Keys: attributionKeys})
}

func versionedTuple(kind keys.Kind, v *Versioned) (keys.KeyTuple, bool, error) {
	if v.IsLatest {
		t, err := keys.LatestKey(kind, v.ID)
		return t, true, err
	}
	t, err := keys.VersionKey(kind, v.ID, v.Version)
	return t, false, err
}

func compositionKeys(c *Composition) (keys.KeyTuple, error) {
	t, latest, err := versionedTuple(keys.KindComposition, &c.Versioned)
	if err != nil || !latest {
		return t, err
	}
	t.GSI[0] = keys.PopularityGSI(keys.KindComposition, c.PopularityScore)
	t.GSI[1] = keys.LetterGSI(keys.KindComposition, c.Title)
	t.GSI[2] = keys.TraditionGSI(keys.KindComposition, c.Tradition, c.Title)
	t.GSI[3] = keys.LanguageGSI(keys.KindComposition, c.Language, c.Title)
	t.GSI[4] = keys.RelatedGSI(keys.KindRaga, c.RagaID, c.Title)
	t.GSI[5] = keys.RelatedGSI(keys.KindTala, c.TalaID, c.Title)
	return t, nil
}

func artistKeys(a *Artist) (keys.KeyTuple, error) {
	t, latest, err := versionedTuple(keys.KindArtist, &a.Versioned)
	if err != nil || !latest {
		return t, err
	}
	t.GSI[0] = keys.KindListGSI(keys.KindArtist, a.Name)
	t.GSI[1] = keys.LetterGSI(keys.KindArtist, a.Name)
	t.GSI[2] = keys.TraditionGSI(keys.KindArtist, a.Tradition, a.Name)
	t.GSI[5] = keys.PopularityGSI(keys.KindArtist, a.PopularityScore)
	return t, nil
}

func ragaKeys(r *Raga) (keys.KeyTuple, error) {
	t, latest, err := versionedTuple(keys.KindRaga, &r.Versioned)
	if err != nil || !latest {
		return t, err
	}
	t.GSI[0] = keys.KindListGSI(keys.KindRaga, r.Name)
	t.GSI[1] = keys.LetterGSI(keys.KindRaga, r.Name)
	t.GSI[2] = keys.TraditionGSI(keys.KindRaga, r.Tradition, r.Name)
	t.GSI[4] = keys.MelakartaGSI(r.Melakarta, r.Name)
	t.GSI[5] = keys.PopularityGSI(keys.KindRaga, r.PopularityScore)
	return t, nil
}

func talaKeys(t *Tala) (keys.KeyTuple, error) {
	tuple, latest, err := versionedTuple(keys.KindTala, &t.Versioned)
	if err != nil || !latest {
		return tuple, err
	}
	tuple.GSI[0] = keys.KindListGSI(keys.KindTala, t.Name)
	tuple.GSI[1] = keys.LetterGSI(keys.KindTala, t.Name)
	tuple.GSI[2] = keys.TraditionGSI(keys.KindTala, t.Tradition, t.Name)
	tuple.GSI[5] = keys.PopularityGSI(keys.KindTala, t.PopularityScore)
	return tuple, nil
}

func attributionKeys(a *Attribution) (keys.KeyTuple, error) {
	t, err := keys.AttributionKey(a.CompositionID, a.ArtistID)
	if err != nil {
		return t, err
	}
	t.GSI[0] = keys.ArtistRelationGSI(a.ArtistID, a.CompositionID)
	if a.AttributionType == AttributionDisputed {
		t.GSI[1] = keys.DisputedGSI(a.CreatedAt.String())
	}
	return t, nil
}

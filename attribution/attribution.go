/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package attribution

import (
	"context"
	"time"

	"github.com/go-openapi/strfmt"
	"go.uber.org/zap"

	"github.com/ragamala/catalogstore/datastore"
	"github.com/ragamala/catalogstore/errors"
	"github.com/ragamala/catalogstore/keys"
	"github.com/ragamala/catalogstore/models"
	"github.com/ragamala/catalogstore/registry"
	"github.com/ragamala/catalogstore/storagemodels"
)

var validTypes = map[string]struct{}{
	models.AttributionPrimary:     {},
	models.AttributionDisputed:    {},
	models.AttributionAlternative: {},
	models.AttributionTraditional: {},
}

var validConfidence = map[string]struct{}{
	models.ConfidenceHigh:   {},
	models.ConfidenceMedium: {},
	models.ConfidenceLow:    {},
}

// Manager owns the composition-to-artist relation rows. Each pair is stored
// once inside the composition's partition and mirrored onto the by-artist
// index slot; disputed relations additionally appear on the disputed-only
// slot.
type Manager struct {
	relations    datastore.Repository[models.Attribution]
	compositions datastore.Repository[models.Composition]
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates an attribution manager over the relation and composition
// repositories.
func New(relations datastore.Repository[models.Attribution], compositions datastore.Repository[models.Composition], opts ...Option) *Manager {
	m := &Manager{
		relations:    relations,
		compositions: compositions,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func validate(a *models.Attribution) error {
	if a.CompositionID == "" {
		return errors.NewValidationError("compositionId", "composition id is required")
	}
	if a.ArtistID == "" {
		return errors.NewValidationError("artistId", "artist id is required")
	}
	if _, ok := validTypes[a.AttributionType]; !ok {
		return errors.NewValidationError("attributionType", "must be one of primary, disputed, alternative, traditional")
	}
	if _, ok := validConfidence[a.Confidence]; !ok {
		return errors.NewValidationError("confidence", "must be one of high, medium, low")
	}
	return nil
}

// Create records a new attribution. The pair is unique; a second attribution
// for the same composition and artist fails with ErrConflict regardless of
// type.
func (m *Manager) Create(ctx context.Context, a models.Attribution) (*models.Attribution, error) {
	if err := validate(&a); err != nil {
		return nil, err
	}
	created, err := m.relations.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("attribution created",
		zap.String("compositionId", a.CompositionID),
		zap.String("artistId", a.ArtistID),
		zap.String("type", a.AttributionType))
	return created, nil
}

// Get reads one attribution by its pair.
func (m *Manager) Get(ctx context.Context, compositionID, artistID string) (*models.Attribution, error) {
	key, err := keys.AttributionKey(compositionID, artistID)
	if err != nil {
		return nil, err
	}
	return m.relations.Get(ctx, key)
}

// Update changes the type or confidence of an existing attribution. The pair
// itself is immutable; reattributing a composition means deleting and
// recreating. Flipping the type to or from disputed moves the row onto or
// off the disputed-only index slot.
func (m *Manager) Update(ctx context.Context, compositionID, artistID string, attributionType, confidence string) (*models.Attribution, error) {
	changes := map[string]any{}
	if attributionType != "" {
		if _, ok := validTypes[attributionType]; !ok {
			return nil, errors.NewValidationError("attributionType", "must be one of primary, disputed, alternative, traditional")
		}
		changes["attributionType"] = attributionType
	}
	if confidence != "" {
		if _, ok := validConfidence[confidence]; !ok {
			return nil, errors.NewValidationError("confidence", "must be one of high, medium, low")
		}
		changes["confidence"] = confidence
	}
	if len(changes) == 0 {
		return nil, errors.NewValidationError("changes", "no updates provided")
	}

	current, err := m.Get(ctx, compositionID, artistID)
	if err != nil {
		return nil, err
	}
	merged, err := registry.MergeChanges(current, changes)
	if err != nil {
		return nil, err
	}
	changes["updatedAt"] = strfmt.DateTime(m.now().UTC())
	if err := registry.IndexDelta(current, merged, changes); err != nil {
		return nil, err
	}

	key, err := keys.AttributionKey(compositionID, artistID)
	if err != nil {
		return nil, err
	}
	return m.relations.Update(ctx, key, changes)
}

// verifyAttempts bounds the re-read loop when concurrent verifiers race on
// the same row.
const verifyAttempts = 3

// Verify appends verifierID to the attribution's verifier set. Verifying
// twice is a no-op that returns the unchanged row. The write is conditional
// on updatedAt, so two concurrent verifiers cannot drop each other's entry;
// the loser re-reads and retries.
func (m *Manager) Verify(ctx context.Context, compositionID, artistID, verifierID string) (*models.Attribution, error) {
	if verifierID == "" {
		return nil, errors.NewValidationError("verifierId", "verifier id is required")
	}
	key, err := keys.AttributionKey(compositionID, artistID)
	if err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		current, err := m.relations.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !current.Verify(verifierID) {
			return current, nil
		}
		updated, err := m.relations.UpdateIf(ctx, key, map[string]any{
			"verifiedBy": current.VerifiedBy,
			"updatedAt":  strfmt.DateTime(m.now().UTC()),
		}, "updatedAt", current.UpdatedAt)
		if err == nil {
			return updated, nil
		}
		if !errors.IsConflict(err) || attempt >= verifyAttempts {
			return nil, err
		}
		m.logger.Debug("verify lost a conditional write, retrying",
			zap.String("compositionId", compositionID),
			zap.String("artistId", artistID),
			zap.Int("attempt", attempt))
	}
}

// Delete removes one attribution pair.
func (m *Manager) Delete(ctx context.Context, compositionID, artistID string) error {
	key, err := keys.AttributionKey(compositionID, artistID)
	if err != nil {
		return err
	}
	return m.relations.Delete(ctx, key)
}

// SearchParams selects one attribution listing. Exactly one axis drives the
// query, in precedence order DisputedOnly, CompositionID, ArtistID.
// AttributionType is not an axis of its own: it narrows whichever axis is
// queried, applied after the page is read, so a short page does not mean the
// listing is exhausted.
type SearchParams struct {
	CompositionID   string
	ArtistID        string
	AttributionType string
	DisputedOnly    bool
	Limit           int32
	Cursor          string
}

// Search lists attributions along one axis with pagination.
func (m *Manager) Search(ctx context.Context, params SearchParams) (*storagemodels.Page[models.Attribution], error) {
	if params.AttributionType != "" {
		if _, ok := validTypes[params.AttributionType]; !ok {
			return nil, errors.NewValidationError("attributionType", "must be one of primary, disputed, alternative, traditional")
		}
	}
	q := &storagemodels.QueryParams{
		Limit:  params.Limit,
		Cursor: params.Cursor,
	}
	switch {
	case params.DisputedOnly:
		q.Index = "gsi2"
		q.PartitionValue = keys.DisputedGSI("").PK
	case params.CompositionID != "":
		partition, err := keys.Partition(keys.KindComposition, params.CompositionID)
		if err != nil {
			return nil, err
		}
		q.PartitionValue = partition
		q.SortPrefix = string(keys.KindArtist) + keys.Delimiter
	case params.ArtistID != "":
		partition, err := keys.Partition(keys.KindArtist, params.ArtistID)
		if err != nil {
			return nil, err
		}
		q.Index = "gsi1"
		q.PartitionValue = partition
		q.SortPrefix = string(keys.KindComposition) + keys.Delimiter
	default:
		return nil, errors.NewValidationError("search", "one of disputedOnly, compositionId, artistId is required")
	}
	page, err := m.relations.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if params.AttributionType != "" {
		kept := page.Items[:0]
		for _, rel := range page.Items {
			if rel.AttributionType == params.AttributionType {
				kept = append(kept, rel)
			}
		}
		page.Items = kept
	}
	return page, nil
}

// AttributedCompositions resolves an artist's attributions into the latest
// composition rows, preserving the relation ordering. Relations whose
// composition has since been deleted are skipped.
func (m *Manager) AttributedCompositions(ctx context.Context, artistID string, limit int32, cursor string) (*storagemodels.Page[models.Composition], error) {
	relations, err := m.Search(ctx, SearchParams{ArtistID: artistID, Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, err
	}

	tuples := make([]keys.KeyTuple, 0, len(relations.Items))
	for _, rel := range relations.Items {
		tuple, err := keys.LatestKey(keys.KindComposition, rel.CompositionID)
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, tuple)
	}
	found, err := m.compositions.BatchGet(ctx, tuples)
	if err != nil {
		return nil, err
	}

	page := &storagemodels.Page[models.Composition]{
		Items:      make([]models.Composition, 0, len(tuples)),
		NextCursor: relations.NextCursor,
		HasMore:    relations.HasMore,
	}
	for _, tuple := range tuples {
		if c, ok := found[tuple.PK]; ok {
			page.Items = append(page.Items, *c)
		}
	}
	return page, nil
}

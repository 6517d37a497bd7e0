/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package versioning

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-openapi/strfmt"
	"go.uber.org/zap"

	"github.com/ragamala/catalogstore/datastore"
	"github.com/ragamala/catalogstore/errors"
	"github.com/ragamala/catalogstore/keys"
	"github.com/ragamala/catalogstore/models"
	"github.com/ragamala/catalogstore/ratelimit"
	"github.com/ragamala/catalogstore/registry"
	"github.com/ragamala/catalogstore/storagemodels"
)

// headered is satisfied by every entity embedding models.Versioned.
type headered interface {
	Header() *models.Versioned
}

// Manager layers the wiki-style version lifecycle on a repository: exactly
// one authoritative latest row per id, an immutable snapshot per superseded
// version, and all index slots carried by the latest row only.
type Manager[T any] struct {
	repo    datastore.Repository[T]
	kind    keys.Kind
	limiter *ratelimit.Limiter
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Manager.
type Option[T any] func(*Manager[T])

// WithLogger sets the structured logger.
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(m *Manager[T]) { m.logger = logger }
}

// WithLimiter guards view and favorite traffic through the limiter.
func WithLimiter[T any](l *ratelimit.Limiter) Option[T] {
	return func(m *Manager[T]) { m.limiter = l }
}

// WithClock overrides the time source.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(m *Manager[T]) { m.now = now }
}

// New creates a version manager for one versioned kind. The entity type must
// embed models.Versioned.
func New[T any](repo datastore.Repository[T], kind keys.Kind, opts ...Option[T]) (*Manager[T], error) {
	if _, ok := any(new(T)).(headered); !ok {
		return nil, fmt.Errorf("%w: %T is not a versioned entity", errors.ErrNoBinding, *new(T))
	}
	m := &Manager[T]{
		repo:   repo,
		kind:   kind,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func header[T any](entity *T) *models.Versioned {
	return any(entity).(headered).Header()
}

// Create stores a brand-new entity at version 1.
func (m *Manager[T]) Create(ctx context.Context, entity T) (*T, error) {
	return m.repo.Create(ctx, entity)
}

// Get reads the authoritative latest row.
func (m *Manager[T]) Get(ctx context.Context, id string) (*T, error) {
	return m.repo.GetLatest(ctx, id)
}

// GetVersion reads one historical snapshot, or the latest row when version
// matches its version number.
func (m *Manager[T]) GetVersion(ctx context.Context, id string, version int) (*T, error) {
	latest, err := m.repo.GetLatest(ctx, id)
	if err != nil {
		return nil, err
	}
	if header(latest).Version == version {
		return latest, nil
	}
	key, err := keys.VersionKey(m.kind, id, version)
	if err != nil {
		return nil, err
	}
	return m.repo.Get(ctx, key)
}

// CreateVersion supersedes the current latest content with updated. The
// caller loads the latest entity, mutates its content fields, and passes it
// back with the version it read; a concurrent edit that lands first wins and
// this call fails with ErrConflict. The superseded content is preserved as an
// immutable snapshot first, so a crash between the two writes never loses
// history. Orphan snapshots from such crashes are harmless: the next
// successful edit of the same version rewrites them with identical content.
func (m *Manager[T]) CreateVersion(ctx context.Context, updated *T, editor string) (*T, error) {
	h := header(updated)
	readVersion := h.Version
	if h.ID == "" || readVersion < 1 {
		return nil, errors.NewValidationError("version", "entity must carry its id and the version it was read at")
	}

	prev, err := m.repo.GetLatest(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	ph := header(prev)
	if ph.Version != readVersion {
		return nil, errors.NewConflictErrorf(string(m.kind), h.ID,
			"version %d was superseded by %d", readVersion, ph.Version)
	}

	snapshot := *prev
	header(&snapshot).IsLatest = false
	if err := m.repo.Put(ctx, snapshot); err != nil {
		return nil, err
	}

	h.Version = readVersion + 1
	h.IsLatest = true
	h.CreatedAt = ph.CreatedAt
	h.AddedBy = ph.AddedBy
	h.RecordEdit(editor, strfmt.DateTime(m.now().UTC()))

	result, err := m.repo.PutIf(ctx, *updated, "version", readVersion)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("version created",
		zap.String("kind", string(m.kind)),
		zap.String("id", h.ID),
		zap.Int("version", h.Version),
		zap.String("editor", editor))
	return result, nil
}

// Update applies a partial edit to the latest row without cutting a new
// version. Index slots that derive from the changed fields are recomputed so
// the row never goes stale in its listings. Changes use attribute names; a
// nil value removes the attribute.
func (m *Manager[T]) Update(ctx context.Context, id string, changes map[string]any, editor string) (*T, error) {
	if len(changes) == 0 {
		return nil, errors.NewValidationError("changes", "no updates provided")
	}
	for _, guarded := range []string{"version", "isLatest", "id", "createdAt", "addedBy"} {
		if _, ok := changes[guarded]; ok {
			return nil, errors.NewValidationError(guarded, "lifecycle fields cannot be updated directly")
		}
	}

	latest, err := m.repo.GetLatest(ctx, id)
	if err != nil {
		return nil, err
	}
	h := header(latest)

	merged, err := registry.MergeChanges(latest, changes)
	if err != nil {
		return nil, err
	}
	mh := header(merged)
	mh.RecordEdit(editor, strfmt.DateTime(m.now().UTC()))

	full := make(map[string]any, len(changes)+2)
	for field, value := range changes {
		full[field] = value
	}
	full["updatedAt"] = mh.UpdatedAt
	full["editedBy"] = mh.EditedBy
	if err := registry.IndexDelta(latest, merged, full); err != nil {
		return nil, err
	}

	key, err := keys.LatestKey(m.kind, id)
	if err != nil {
		return nil, err
	}
	return m.repo.UpdateIf(ctx, key, full, "version", h.Version)
}

// GetVersionHistory pages through an entity's versions in ascending order.
// The latest row is appended after the final snapshot page, so a full
// traversal yields versions 1..N with exactly one latest.
func (m *Manager[T]) GetVersionHistory(ctx context.Context, id string, limit int32, cursor string) (*storagemodels.Page[T], error) {
	partition, err := keys.Partition(m.kind, id)
	if err != nil {
		return nil, err
	}
	page, err := m.repo.Query(ctx, &storagemodels.QueryParams{
		PartitionValue: partition,
		SortPrefix:     keys.VersionSKPrefix(),
		Limit:          limit,
		Cursor:         cursor,
	})
	if err != nil {
		return nil, err
	}
	if page.HasMore {
		return page, nil
	}
	latest, err := m.repo.GetLatest(ctx, id)
	if err != nil {
		return nil, err
	}
	page.Items = append(page.Items, *latest)
	return page, nil
}

// Delete removes the entity and its entire version history. Irreversible.
func (m *Manager[T]) Delete(ctx context.Context, id string) error {
	return m.repo.DeleteAllVersions(ctx, id)
}

// RepairLatest restores a missing latest row by promoting the highest
// surviving snapshot. It is the corrective path for a crash that landed the
// snapshot write but lost the flip; a healthy entity is returned unchanged.
func (m *Manager[T]) RepairLatest(ctx context.Context, id string) (*T, error) {
	latest, err := m.repo.GetLatest(ctx, id)
	if err == nil {
		return latest, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	partition, perr := keys.Partition(m.kind, id)
	if perr != nil {
		return nil, perr
	}
	page, qerr := m.repo.Query(ctx, &storagemodels.QueryParams{
		PartitionValue: partition,
		SortPrefix:     keys.VersionSKPrefix(),
		Descending:     true,
		Limit:          1,
	})
	if qerr != nil {
		return nil, qerr
	}
	if len(page.Items) == 0 {
		return nil, err
	}

	promoted := page.Items[0]
	header(&promoted).IsLatest = true
	if perr := m.repo.Put(ctx, promoted); perr != nil {
		return nil, perr
	}
	m.logger.Warn("latest row repaired from snapshot",
		zap.String("kind", string(m.kind)),
		zap.String("id", id),
		zap.Int("version", header(&promoted).Version))
	return &promoted, nil
}

// TrackView counts one human view: viewCount +1 and popularityScore +1.
// Bot traffic is dropped silently; per-caller view budgets apply when a
// limiter is wired. The popularity index slot refreshes from the new score.
func (m *Manager[T]) TrackView(ctx context.Context, id string, viewer ratelimit.Identity) error {
	if viewer.IsBot {
		return nil
	}
	if m.limiter != nil {
		if err := m.limiter.Guard(ratelimit.ClassView, viewer); err != nil {
			return err
		}
	}
	return m.bumpCounters(ctx, id, map[string]int64{
		"viewCount":       1,
		"popularityScore": 1,
	})
}

// Favorite counts one favorite: favoriteCount +1 and popularityScore +5.
func (m *Manager[T]) Favorite(ctx context.Context, id string, user ratelimit.Identity) error {
	if m.limiter != nil {
		if err := m.limiter.Guard(ratelimit.ClassWrite, user); err != nil {
			return err
		}
	}
	return m.bumpCounters(ctx, id, map[string]int64{
		"favoriteCount":   1,
		"popularityScore": 5,
	})
}

func (m *Manager[T]) bumpCounters(ctx context.Context, id string, deltas map[string]int64) error {
	key, err := keys.LatestKey(m.kind, id)
	if err != nil {
		return err
	}
	if err := m.repo.IncrementCounters(ctx, key, deltas); err != nil {
		return err
	}
	m.refreshPopularitySlot(ctx, id, key)
	return nil
}

// refreshPopularitySlot re-derives the popularity index sort key from the
// counter values. Best effort: a lost refresh leaves the ranking slightly
// stale until the next bump, which is acceptable for an eventually
// consistent index.
func (m *Manager[T]) refreshPopularitySlot(ctx context.Context, id string, key keys.KeyTuple) {
	slot, ok := keys.PopularitySlot(m.kind)
	if !ok {
		return
	}
	latest, err := m.repo.GetLatest(ctx, id)
	if err != nil {
		m.logger.Warn("popularity refresh skipped", zap.String("id", id), zap.Error(err))
		return
	}
	pair := keys.PopularityGSI(m.kind, header(latest).PopularityScore)
	n := strconv.Itoa(slot)
	_, err = m.repo.Update(ctx, key, map[string]any{
		"gsi" + n + "pk": pair.PK,
		"gsi" + n + "sk": pair.SK,
	})
	if err != nil {
		m.logger.Warn("popularity refresh failed", zap.String("id", id), zap.Error(err))
	}
}

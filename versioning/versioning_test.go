/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package versioning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragamala/catalogstore/datastore/mock"
	"github.com/ragamala/catalogstore/errors"
	"github.com/ragamala/catalogstore/keys"
	"github.com/ragamala/catalogstore/models"
	"github.com/ragamala/catalogstore/ratelimit"
	"github.com/ragamala/catalogstore/storagemodels"
)

func newCompositionManager(t *testing.T) (*Manager[models.Composition], *mock.Store[models.Composition]) {
	t.Helper()
	store := mock.New[models.Composition]()
	mgr, err := New[models.Composition](store, keys.KindComposition)
	require.NoError(t, err)
	return mgr, store
}

func createComposition(t *testing.T, mgr *Manager[models.Composition], title string) *models.Composition {
	t.Helper()
	created, err := mgr.Create(context.Background(), models.Composition{
		Title:     title,
		Tradition: "Carnatic",
		Language:  "sanskrit",
		Versioned: models.Versioned{AddedBy: "editor-1"},
	})
	require.NoError(t, err)
	return created
}

func TestCreateNormalizesInput(t *testing.T) {
	mgr, _ := newCompositionManager(t)

	created := createComposition(t, mgr, "  Vathapi   Ganapathim ")

	assert.Equal(t, "Vathapi Ganapathim", created.Title)
	assert.Equal(t, "Sanskrit", created.Language)
	assert.Equal(t, 1, created.Version)
	assert.True(t, created.IsLatest)
	assert.Equal(t, []string{"editor-1"}, created.EditedBy)
	assert.Equal(t, created.CreatedAt.String(), created.UpdatedAt.String())
}

func TestCreateVersionSupersedesLatest(t *testing.T) {
	mgr, _ := newCompositionManager(t)
	ctx := context.Background()

	created := createComposition(t, mgr, "Endaro Mahanubhavulu")

	loaded, err := mgr.Get(ctx, created.ID)
	require.NoError(t, err)
	loaded.Lyrics = "endaro mahanubhavulu andariki vandanamulu"

	updated, err := mgr.CreateVersion(ctx, loaded, "editor-2")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.True(t, updated.IsLatest)
	assert.Equal(t, []string{"editor-1", "editor-2"}, updated.EditedBy)
	assert.Equal(t, created.CreatedAt.String(), updated.CreatedAt.String())

	// Full history: version 1 snapshot plus version 2 latest, exactly one latest.
	history, err := mgr.GetVersionHistory(ctx, created.ID, 10, "")
	require.NoError(t, err)
	require.Len(t, history.Items, 2)
	assert.Equal(t, 1, history.Items[0].Version)
	assert.False(t, history.Items[0].IsLatest)
	assert.Empty(t, history.Items[0].Lyrics)
	assert.Equal(t, 2, history.Items[1].Version)
	assert.True(t, history.Items[1].IsLatest)
}

func TestCreateVersionConflictOnStaleRead(t *testing.T) {
	mgr, _ := newCompositionManager(t)
	ctx := context.Background()

	created := createComposition(t, mgr, "Nagumomu")

	first, err := mgr.Get(ctx, created.ID)
	require.NoError(t, err)
	second, err := mgr.Get(ctx, created.ID)
	require.NoError(t, err)

	first.Lyrics = "edit that lands first"
	_, err = mgr.CreateVersion(ctx, first, "editor-2")
	require.NoError(t, err)

	second.Lyrics = "edit from a stale read"
	_, err = mgr.CreateVersion(ctx, second, "editor-3")
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	// The losing edit must not appear anywhere in history.
	history, err := mgr.GetVersionHistory(ctx, created.ID, 10, "")
	require.NoError(t, err)
	require.Len(t, history.Items, 2)
	assert.Equal(t, "edit that lands first", history.Items[1].Lyrics)
}

func TestGetVersion(t *testing.T) {
	mgr, _ := newCompositionManager(t)
	ctx := context.Background()

	created := createComposition(t, mgr, "Bantureethi Kolu")
	loaded, err := mgr.Get(ctx, created.ID)
	require.NoError(t, err)
	loaded.Tradition = "Carnatic kriti"
	_, err = mgr.CreateVersion(ctx, loaded, "editor-2")
	require.NoError(t, err)

	v1, err := mgr.GetVersion(ctx, created.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Carnatic", v1.Tradition)
	assert.False(t, v1.IsLatest)

	v2, err := mgr.GetVersion(ctx, created.ID, 2)
	require.NoError(t, err)
	assert.True(t, v2.IsLatest)

	_, err = mgr.GetVersion(ctx, created.ID, 3)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateRecordsEditorAndRefreshesIndexes(t *testing.T) {
	mgr, store := newCompositionManager(t)
	ctx := context.Background()

	created := createComposition(t, mgr, "Krishna Nee Begane")

	updated, err := mgr.Update(ctx, created.ID, map[string]any{
		"title": "Raghuvamsa Sudha",
	}, "editor-2")
	require.NoError(t, err)
	assert.Equal(t, "Raghuvamsa Sudha", updated.Title)
	assert.Equal(t, 1, updated.Version)
	assert.Equal(t, []string{"editor-1", "editor-2"}, updated.EditedBy)

	// The letter listing must move from k to r with the new title.
	letter := keys.LetterGSI(keys.KindComposition, "Raghuvamsa Sudha")
	page, err := store.Query(ctx, &storagemodels.QueryParams{
		Index:          "gsi2",
		PartitionValue: letter.PK,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)

	old := keys.LetterGSI(keys.KindComposition, "Krishna Nee Begane")
	page, err = store.Query(ctx, &storagemodels.QueryParams{
		Index:          "gsi2",
		PartitionValue: old.PK,
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestUpdateRejectsLifecycleFields(t *testing.T) {
	mgr, _ := newCompositionManager(t)
	created := createComposition(t, mgr, "Samaja Vara Gamana")

	_, err := mgr.Update(context.Background(), created.ID, map[string]any{
		"version": 99,
	}, "editor-2")
	assert.True(t, errors.IsValidationError(err))
}

func TestUpdateRemovesAttributeOnNil(t *testing.T) {
	mgr, _ := newCompositionManager(t)
	ctx := context.Background()

	created := createComposition(t, mgr, "Jagadananda Karaka")
	_, err := mgr.Update(ctx, created.ID, map[string]any{"lyrics": "some lyrics"}, "editor-2")
	require.NoError(t, err)

	updated, err := mgr.Update(ctx, created.ID, map[string]any{"lyrics": nil}, "editor-2")
	require.NoError(t, err)
	assert.Empty(t, updated.Lyrics)
}

func TestTrackViewAndFavorite(t *testing.T) {
	mgr, store := newCompositionManager(t)
	ctx := context.Background()

	created := createComposition(t, mgr, "Brochevarevarura")
	viewer := ratelimit.Identity{UserID: "user-1"}

	require.NoError(t, mgr.TrackView(ctx, created.ID, viewer))
	require.NoError(t, mgr.TrackView(ctx, created.ID, viewer))
	require.NoError(t, mgr.Favorite(ctx, created.ID, viewer))

	latest, err := mgr.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.ViewCount)
	assert.Equal(t, int64(1), latest.FavoriteCount)
	assert.Equal(t, int64(7), latest.PopularityScore) // 2 views + 5 per favorite

	// The popularity ranking slot reflects the new score.
	pop := keys.PopularityGSI(keys.KindComposition, 7)
	page, err := store.Query(ctx, &storagemodels.QueryParams{
		Index:          "gsi1",
		PartitionValue: pop.PK,
		Descending:     true,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
}

func TestTrackViewIgnoresBots(t *testing.T) {
	mgr, _ := newCompositionManager(t)
	ctx := context.Background()

	created := createComposition(t, mgr, "Sri Ganapathini")
	require.NoError(t, mgr.TrackView(ctx, created.ID, ratelimit.Identity{Addr: "10.0.0.9", IsBot: true}))

	latest, err := mgr.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, latest.ViewCount)
	assert.Zero(t, latest.PopularityScore)
}

func TestTrackViewHonorsLimiter(t *testing.T) {
	store := mock.New[models.Composition]()
	limiter := ratelimit.New(map[string]ratelimit.ClassConfig{
		ratelimit.ClassView:    {Max: 1, WindowMS: 60_000},
		ratelimit.ClassGeneral: {Max: 1, WindowMS: 60_000},
	})
	mgr, err := New[models.Composition](store, keys.KindComposition, WithLimiter[models.Composition](limiter))
	require.NoError(t, err)

	ctx := context.Background()
	created := createComposition(t, mgr, "Vatapi Stress Test")
	viewer := ratelimit.Identity{Addr: "203.0.113.7"}

	require.NoError(t, mgr.TrackView(ctx, created.ID, viewer))
	err = mgr.TrackView(ctx, created.ID, viewer)
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))

	latest, err := mgr.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), latest.ViewCount)
}

func TestRepairLatestPromotesHighestSnapshot(t *testing.T) {
	mgr, store := newCompositionManager(t)
	ctx := context.Background()

	created := createComposition(t, mgr, "Marugelara")
	loaded, err := mgr.Get(ctx, created.ID)
	require.NoError(t, err)
	loaded.Lyrics = "second version"
	_, err = mgr.CreateVersion(ctx, loaded, "editor-2")
	require.NoError(t, err)

	// Simulate a crash that lost the latest row after snapshotting.
	latestKey, err := keys.LatestKey(keys.KindComposition, created.ID)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, latestKey))
	_, err = mgr.Get(ctx, created.ID)
	require.True(t, errors.IsNotFound(err))

	repaired, err := mgr.RepairLatest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired.Version)
	assert.True(t, repaired.IsLatest)

	latest, err := mgr.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, latest.Title)
}

func TestRepairLatestNoopWhenHealthy(t *testing.T) {
	mgr, _ := newCompositionManager(t)
	ctx := context.Background()

	created := createComposition(t, mgr, "Healthy Entity")
	repaired, err := mgr.RepairLatest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, repaired.ID)
	assert.Equal(t, 1, repaired.Version)
}

func TestHistorySurfacesStorageErrors(t *testing.T) {
	store := mock.New[models.Composition]().FailQuery(errors.NewStorageError("Query", assert.AnError))
	mgr, err := New[models.Composition](store, keys.KindComposition)
	require.NoError(t, err)

	_, err = mgr.GetVersionHistory(context.Background(), "comp-1", 10, "")
	assert.True(t, errors.IsStorageUnavailable(err))
}

func TestVersionHistoryPaginates(t *testing.T) {
	mgr, _ := newCompositionManager(t)
	ctx := context.Background()

	created := createComposition(t, mgr, "Paginated Kriti")
	for i := 0; i < 6; i++ {
		loaded, err := mgr.Get(ctx, created.ID)
		require.NoError(t, err)
		loaded.Lyrics = time.Now().String()
		_, err = mgr.CreateVersion(ctx, loaded, "editor-2")
		require.NoError(t, err)
	}

	seen := map[int]bool{}
	cursor := ""
	for {
		page, err := mgr.GetVersionHistory(ctx, created.ID, 3, cursor)
		require.NoError(t, err)
		for _, item := range page.Items {
			assert.False(t, seen[item.Version], "version %d returned twice", item.Version)
			seen[item.Version] = true
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	require.Len(t, seen, 7)
	for v := 1; v <= 7; v++ {
		assert.True(t, seen[v], "missing version %d", v)
	}
}

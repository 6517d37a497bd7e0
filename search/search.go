/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package search

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ragamala/catalogstore/attribution"
	"github.com/ragamala/catalogstore/datastore"
	"github.com/ragamala/catalogstore/errors"
	"github.com/ragamala/catalogstore/keys"
	"github.com/ragamala/catalogstore/models"
	"github.com/ragamala/catalogstore/normalize"
	"github.com/ragamala/catalogstore/ratelimit"
	"github.com/ragamala/catalogstore/storagemodels"
)

// DefaultLimit is the page size applied when the caller passes none.
const DefaultLimit = 20

// Params selects one listing. At most one search axis applies per request,
// in precedence order Query, Tradition, Language, Melakarta, ArtistID,
// RagaID, TalaID; with no axis set the kind's default listing is returned,
// ranked by popularity when Popular is set and by name otherwise.
type Params struct {
	Query     string `json:"query" validate:"omitempty,min=1,max=200"`
	Tradition string `json:"tradition" validate:"omitempty,max=100"`
	Language  string `json:"language" validate:"omitempty,max=50"`
	Melakarta int    `json:"melakarta" validate:"omitempty,min=1,max=72"`
	ArtistID  string `json:"artistId" validate:"omitempty,max=128"`
	RagaID    string `json:"ragaId" validate:"omitempty,max=128"`
	TalaID    string `json:"talaId" validate:"omitempty,max=128"`
	Popular   bool   `json:"popular"`
	Limit     int32  `json:"limit" validate:"omitempty,min=1,max=100"`
	NextToken string `json:"nextToken"`
}

// Router validates and normalizes search input, then dispatches each request
// to exactly one index scan.
type Router struct {
	compositions datastore.Repository[models.Composition]
	artists      datastore.Repository[models.Artist]
	ragas        datastore.Repository[models.Raga]
	talas        datastore.Repository[models.Tala]
	attributions *attribution.Manager
	limiter      *ratelimit.Limiter
	validate     *validator.Validate
	logger       *zap.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithLimiter guards search traffic through the limiter, keyed by the
// identity attached to the request context.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(r *Router) { r.limiter = l }
}

// New creates a search router over the per-kind repositories.
func New(
	compositions datastore.Repository[models.Composition],
	artists datastore.Repository[models.Artist],
	ragas datastore.Repository[models.Raga],
	talas datastore.Repository[models.Tala],
	attributions *attribution.Manager,
	opts ...Option,
) *Router {
	r := &Router{
		compositions: compositions,
		artists:      artists,
		ragas:        ragas,
		talas:        talas,
		attributions: attributions,
		validate:     validator.New(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// prepare validates the raw parameters and normalizes the text axes so
// lookups match what was stored at write time.
func (r *Router) prepare(ctx context.Context, params *Params) error {
	if r.limiter != nil {
		if err := r.limiter.Guard(ratelimit.ClassSearch, ratelimit.IdentityFrom(ctx)); err != nil {
			return err
		}
	}
	if err := r.validate.Struct(params); err != nil {
		if fields, ok := err.(validator.ValidationErrors); ok && len(fields) > 0 {
			return errors.NewValidationError(fields[0].Field(), fields[0].Tag())
		}
		return errors.NewValidationError("params", err.Error())
	}
	params.Query = normalize.Text(params.Query)
	params.Tradition = normalize.Text(params.Tradition)
	if params.Language != "" {
		params.Language = normalize.Language(params.Language)
	}
	if params.Limit == 0 {
		params.Limit = DefaultLimit
	}
	return nil
}

// route picks the single index scan for a kind. Prefix search rides the
// letter slot, so queries match from the beginning of the normalized name.
func route(kind keys.Kind, params *Params) (*storagemodels.QueryParams, error) {
	q := &storagemodels.QueryParams{Limit: params.Limit, Cursor: params.NextToken}
	switch {
	case params.Query != "":
		pair := keys.LetterGSI(kind, params.Query)
		if pair.PK == "" {
			return nil, errors.NewValidationError("query", "query must start with an indexable character")
		}
		q.Index = "gsi2"
		q.PartitionValue = pair.PK
		q.SortPrefix = pair.SK
	case params.Tradition != "":
		q.Index = "gsi3"
		q.PartitionValue = keys.TraditionGSI(kind, params.Tradition, "").PK
	case params.Language != "":
		if kind != keys.KindComposition {
			return nil, errors.NewValidationError("language", "only compositions are indexed by language")
		}
		q.Index = "gsi4"
		q.PartitionValue = keys.LanguageGSI(kind, params.Language, "").PK
	case params.Melakarta != 0:
		if kind != keys.KindRaga {
			return nil, errors.NewValidationError("melakarta", "only ragas are indexed by melakarta")
		}
		q.Index = "gsi5"
		q.PartitionValue = keys.MelakartaGSI(params.Melakarta, "").PK
	case params.RagaID != "":
		if kind != keys.KindComposition {
			return nil, errors.NewValidationError("ragaId", "only compositions are indexed by raga")
		}
		partition, err := keys.Partition(keys.KindRaga, params.RagaID)
		if err != nil {
			return nil, err
		}
		q.Index = "gsi5"
		q.PartitionValue = partition
	case params.TalaID != "":
		if kind != keys.KindComposition {
			return nil, errors.NewValidationError("talaId", "only compositions are indexed by tala")
		}
		partition, err := keys.Partition(keys.KindTala, params.TalaID)
		if err != nil {
			return nil, err
		}
		q.Index = "gsi6"
		q.PartitionValue = partition
	case params.Popular:
		slot, _ := keys.PopularitySlot(kind)
		q.Index = "gsi" + strconv.Itoa(slot)
		q.PartitionValue = keys.PopularityGSI(kind, 0).PK
		q.Descending = true
	default:
		if kind == keys.KindComposition {
			// Compositions have no name listing; the default is popularity.
			q.Index = "gsi1"
			q.PartitionValue = keys.PopularityGSI(kind, 0).PK
			q.Descending = true
			break
		}
		q.Index = "gsi1"
		q.PartitionValue = keys.KindListGSI(kind, "").PK
	}
	return q, nil
}

// Compositions routes one composition search. The ArtistID axis resolves
// through the attribution relation instead of an index slot on the
// composition row.
func (r *Router) Compositions(ctx context.Context, params Params) (*storagemodels.Page[models.Composition], error) {
	if err := r.prepare(ctx, &params); err != nil {
		return nil, err
	}
	if params.Query == "" && params.Tradition == "" && params.Language == "" && params.ArtistID != "" {
		return r.attributions.AttributedCompositions(ctx, params.ArtistID, params.Limit, params.NextToken)
	}
	q, err := route(keys.KindComposition, &params)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("composition search routed",
		zap.String("index", q.Index),
		zap.String("partition", q.PartitionValue))
	return r.compositions.Query(ctx, q)
}

// Artists routes one artist search.
func (r *Router) Artists(ctx context.Context, params Params) (*storagemodels.Page[models.Artist], error) {
	if err := r.prepare(ctx, &params); err != nil {
		return nil, err
	}
	q, err := route(keys.KindArtist, &params)
	if err != nil {
		return nil, err
	}
	return r.artists.Query(ctx, q)
}

// Ragas routes one raga search.
func (r *Router) Ragas(ctx context.Context, params Params) (*storagemodels.Page[models.Raga], error) {
	if err := r.prepare(ctx, &params); err != nil {
		return nil, err
	}
	q, err := route(keys.KindRaga, &params)
	if err != nil {
		return nil, err
	}
	return r.ragas.Query(ctx, q)
}

// Talas routes one tala search.
func (r *Router) Talas(ctx context.Context, params Params) (*storagemodels.Page[models.Tala], error) {
	if err := r.prepare(ctx, &params); err != nil {
		return nil, err
	}
	q, err := route(keys.KindTala, &params)
	if err != nil {
		return nil, err
	}
	return r.talas.Query(ctx, q)
}

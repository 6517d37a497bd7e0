/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package catalogstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/ragamala/catalogstore/attribution"
	"github.com/ragamala/catalogstore/config"
	"github.com/ragamala/catalogstore/datastore"
	"github.com/ragamala/catalogstore/datastore/ddb"
	"github.com/ragamala/catalogstore/keys"
	"github.com/ragamala/catalogstore/models"
	"github.com/ragamala/catalogstore/ratelimit"
	"github.com/ragamala/catalogstore/search"
	"github.com/ragamala/catalogstore/storagemodels"
	"github.com/ragamala/catalogstore/versioning"
)

// Repositories bundles one typed repository per entity kind. Every catalog
// wires against this, whether backed by DynamoDB or an in-memory test double.
type Repositories struct {
	Compositions datastore.Repository[models.Composition]
	Artists      datastore.Repository[models.Artist]
	Ragas        datastore.Repository[models.Raga]
	Talas        datastore.Repository[models.Tala]
	Attributions datastore.Repository[models.Attribution]
}

// Catalog is the assembled data-access layer: one version manager per
// versioned kind, the attribution relation manager, the search router, and
// the shared request limiter.
type Catalog struct {
	Compositions *versioning.Manager[models.Composition]
	Artists      *versioning.Manager[models.Artist]
	Ragas        *versioning.Manager[models.Raga]
	Talas        *versioning.Manager[models.Tala]
	Attributions *attribution.Manager
	Search       *search.Router
	Limiter      *ratelimit.Limiter

	logger *zap.Logger
}

// New connects to DynamoDB per the configuration and assembles a catalog.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var sdkClient *dynamodb.Client
	var err error
	if cfg.Endpoint != "" {
		sdkClient, err = ddb.NewClientWithEndpoint(ctx, cfg.Region, cfg.Endpoint)
	} else {
		sdkClient, err = ddb.NewClient(ctx, cfg.Region)
	}
	if err != nil {
		return nil, err
	}

	var secret []byte
	if cfg.CursorSecret != "" {
		secret = []byte(cfg.CursorSecret)
	}
	cursors := storagemodels.NewCursorCodec(secret)

	repos := Repositories{}
	if repos.Compositions, err = ddb.New[models.Composition](sdkClient, cfg.Table,
		ddb.WithLogger[models.Composition](logger), ddb.WithCursorCodec[models.Composition](cursors)); err != nil {
		return nil, err
	}
	if repos.Artists, err = ddb.New[models.Artist](sdkClient, cfg.Table,
		ddb.WithLogger[models.Artist](logger), ddb.WithCursorCodec[models.Artist](cursors)); err != nil {
		return nil, err
	}
	if repos.Ragas, err = ddb.New[models.Raga](sdkClient, cfg.Table,
		ddb.WithLogger[models.Raga](logger), ddb.WithCursorCodec[models.Raga](cursors)); err != nil {
		return nil, err
	}
	if repos.Talas, err = ddb.New[models.Tala](sdkClient, cfg.Table,
		ddb.WithLogger[models.Tala](logger), ddb.WithCursorCodec[models.Tala](cursors)); err != nil {
		return nil, err
	}
	if repos.Attributions, err = ddb.New[models.Attribution](sdkClient, cfg.Table,
		ddb.WithLogger[models.Attribution](logger), ddb.WithCursorCodec[models.Attribution](cursors)); err != nil {
		return nil, err
	}

	limiter := ratelimit.New(cfg.RateLimits,
		ratelimit.WithLogger(logger),
		ratelimit.WithTrusted(cfg.Trusted...))
	return Assemble(repos, limiter, logger)
}

// Assemble builds a catalog from pre-constructed repositories. Tests and
// alternative backends enter here.
func Assemble(repos Repositories, limiter *ratelimit.Limiter, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = ratelimit.New(nil, ratelimit.WithLogger(logger))
	}

	compositions, err := versioning.New(repos.Compositions, keys.KindComposition,
		versioning.WithLogger[models.Composition](logger),
		versioning.WithLimiter[models.Composition](limiter))
	if err != nil {
		return nil, fmt.Errorf("failed to build composition manager: %w", err)
	}
	artists, err := versioning.New(repos.Artists, keys.KindArtist,
		versioning.WithLogger[models.Artist](logger),
		versioning.WithLimiter[models.Artist](limiter))
	if err != nil {
		return nil, fmt.Errorf("failed to build artist manager: %w", err)
	}
	ragas, err := versioning.New(repos.Ragas, keys.KindRaga,
		versioning.WithLogger[models.Raga](logger),
		versioning.WithLimiter[models.Raga](limiter))
	if err != nil {
		return nil, fmt.Errorf("failed to build raga manager: %w", err)
	}
	talas, err := versioning.New(repos.Talas, keys.KindTala,
		versioning.WithLogger[models.Tala](logger),
		versioning.WithLimiter[models.Tala](limiter))
	if err != nil {
		return nil, fmt.Errorf("failed to build tala manager: %w", err)
	}

	attributions := attribution.New(repos.Attributions, repos.Compositions,
		attribution.WithLogger(logger))
	router := search.New(repos.Compositions, repos.Artists, repos.Ragas, repos.Talas,
		attributions, search.WithLogger(logger), search.WithLimiter(limiter))

	return &Catalog{
		Compositions: compositions,
		Artists:      artists,
		Ragas:        ragas,
		Talas:        talas,
		Attributions: attributions,
		Search:       router,
		Limiter:      limiter,
		logger:       logger,
	}, nil
}

// SweepLimiter evicts idle rate-limit buckets. Call it on whatever cadence
// the embedding service prefers; once per window is plenty.
func (c *Catalog) SweepLimiter() int {
	return c.Limiter.Sweep(time.Now())
}

/*
Package catalogstore is the data-access core of a collaborative catalog of
Indian classical music: compositions, artists, ragas and talas, plus the
attribution relation linking compositions to the artists credited with them.

Everything lives in one DynamoDB table. Each entity occupies a row keyed by
kind and id, with six overloaded secondary index slots whose meaning is fixed
per kind (name listing, popularity ranking, starting letter, tradition,
language, relations). Versioned entities keep their authoritative content in
a single LATEST row and preserve superseded content as immutable VERSION
snapshots that carry no index slots.

Key properties:
  - Type-safe repositories using Go generics, one per entity kind
  - Wiki-style versioning with optimistic concurrency: concurrent edits of
    the same version conflict instead of silently overwriting
  - Exactly one index scan per search request, routed by axis precedence
  - HMAC-signed pagination cursors bound to the partition they were issued for
  - Per-caller sliding-window rate limiting by request class

Basic Usage:

	cfg, _ := config.Load("catalog.yaml")
	catalog, _ := catalogstore.New(ctx, cfg, logger)

	created, _ := catalog.Compositions.Create(ctx, models.Composition{
		Title:    "Vathapi Ganapathim",
		Language: "sanskrit",
		Versioned: models.Versioned{AddedBy: "editor-1"},
	})

	page, _ := catalog.Search.Compositions(ctx, search.Params{Query: "vathapi"})
*/
package catalogstore

/*
Package datastore defines the generic repository contract for the catalog's
persistence layer.

The main interface is Repository[T], which provides CRUD, query, and batch
primitives for any entity type T with a registered key binding:

	repo, _ := ddb.New[models.Composition](client, "catalog")
	created, err := repo.Create(ctx, composition)
	latest, err := repo.GetLatest(ctx, created.ID)

Implementations:
  - ddb:  DynamoDB implementation for the single-table, six-GSI layout
  - mock: in-memory implementation for testing the managers above it

Repository operations are safe to invoke concurrently across distinct entity
ids. Secondary-index reads may be eventually consistent; a freshly written
row can be briefly absent from a GSI-backed query result.
*/
package datastore

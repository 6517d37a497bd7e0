/*
Package ddb implements the generic Repository interface on a single DynamoDB
table with six overloaded GSIs.

The Store owns row encoding end to end:
  - key attributes (pk, sk, gsi1pk..gsi6sk) come from the registered key
    binding; unused GSI slots are omitted, not written empty
  - an entityKind attribute tags every row with its kind
  - entity fields marshal through attributevalue alongside the keys

Write semantics:
  - Create is conditional on the key not existing (ErrConflict otherwise)
  - Update requires the row to exist (ErrNotFound otherwise)
  - UpdateIf adds an expected-value condition; a lost condition surfaces as
    ErrConflict for optimistic-concurrency callers
  - IncrementCounters uses ADD for view/favorite tallies

Reads on the primary key are strongly consistent. GSI queries may briefly
miss a freshly written row; callers tolerate that. Backend failures wrap
into StorageError and propagate unchanged; the store never retries beyond
re-driving unprocessed batch keys.
*/
package ddb

/*
Package storagemodels defines the data structures shared by the repository
implementations.

QueryParams describes one index scan in domain terms (index slot, partition
value, optional sort-key prefix, direction, limit, cursor); the DynamoDB
repository translates it into a QueryInput. Page[T] is the uniform paginated
result: items, an opaque continuation token, and a HasMore flag.

CursorCodec produces the continuation tokens. A token is the base64 JSON of
the scan's last evaluated key plus an HMAC-SHA256 signature, bound to the
partition it was issued for. Callers must treat tokens as unparseable and
pass them back verbatim.
*/
package storagemodels

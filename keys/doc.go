/*
Package keys is the key codec for the catalog's single-table layout.

One table row is one entity instance. Every row carries a primary pk/sk pair
and up to six gsiNpk/gsiNsk pairs. Each physical GSI slot is overloaded: the
same slot serves a different logical query depending on the entity kind, and
the assignment is a static contract expressed by the builder functions here,
dispatched by the Kind tag, never negotiated from the data shape at runtime.

Primary key shapes:

	composition, artist, raga, tala (versioned):
	    pk = "<KIND>#<id>"   sk = "LATEST"            (authoritative row)
	    pk = "<KIND>#<id>"   sk = "VERSION#000042"    (immutable history)

	attribution (relation):
	    pk = "COMPOSITION#<cid>"   sk = "ARTIST#<aid>"

Encode and Decode are deterministic and mutually inverse for valid input;
malformed identifiers (empty, containing "#", wrong arity, non-canonical
version numbers) fail with InvalidKeyError and never reach storage.
*/
package keys

/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

// Package attribution manages the many-to-many relation between compositions
// and artists.
//
// A relation row lives inside its composition's partition under an
// ARTIST#<id> sort key, so listing a composition's artists is a primary-key
// query. The by-artist direction rides an index slot keyed the opposite way,
// and disputed relations appear on a dedicated disputed-only slot whose sort
// key is the creation timestamp. The (composition, artist) pair is unique
// and immutable; only type, confidence and the verifier set may change.
package attribution

/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

// Package search routes catalog listing requests onto the secondary indexes.
//
// Every request resolves to exactly one index scan. Input is validated and
// normalized first, so a query for "  sanskrit " hits the same partition the
// writer populated for "Sanskrit". Name queries are prefix matches against
// the letter-partitioned slot; axis precedence is fixed, so a request
// carrying both a query and a tradition searches by query alone.
package search

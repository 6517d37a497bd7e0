/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

// Package versioning implements the wiki-style edit lifecycle for catalog
// entities.
//
// Each entity id owns one partition. The authoritative content lives in a
// single row at sort key LATEST, which also carries every secondary index
// slot. Superseded content is preserved as immutable VERSION#nnnnnn rows
// that carry no index slots, so listings only ever see the latest row.
//
// Creating a version is a two-step write: snapshot the current latest, then
// conditionally replace it while its version number is unchanged. Concurrent
// editors both snapshot the same content; exactly one replacement wins and
// the loser receives ErrConflict with the superseding version number.
// RepairLatest recovers from a crash between the two steps.
//
// View and favorite counters update in place through atomic adds and never
// cut a version; the derived popularity ranking refreshes best-effort.
package versioning

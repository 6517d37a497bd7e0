/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

// Package models defines the catalog's entity types and their key bindings.
//
// Composition, Artist, Raga and Tala embed Versioned, the shared lifecycle
// header (version number, latest flag, timestamps, editors, counters).
// Attribution is the unversioned relation row between a composition and an
// artist. The bindings in this package map each type onto the table's static
// index slot contract; only latest rows populate index slots.
package models

/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

// Package ratelimit implements per-caller sliding-window admission control.
//
// Requests are grouped into classes (general, search, write, view,
// anonymous), each with its own max-per-window budget. Callers are keyed by
// user id when authenticated, by remote address otherwise, and fall into a
// shared anonymous bucket when neither is known. Loopback addresses and
// configured service accounts bypass limiting entirely.
//
// State lives in process memory. The limiter starts no goroutines; embedding
// code calls Sweep on its own schedule to evict idle buckets.
package ratelimit

/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

// Package normalize holds the text canonicalization rules applied to entity
// content before it is stored or searched. Writers and readers must agree on
// these rules, otherwise index partitions derived from text would fragment.
package normalize

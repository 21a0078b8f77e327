// Package draftlib implements the resilient async persistence core used
// by the DraftSync daemon and CLI: a debounced auto-save scheduler with
// optimistic-concurrency conflict detection, a strictly sequential asset
// upload queue with per-task retry, and a link-health scanner that probes
// every distinct resource URL referenced by a document collection.
//
// All components are plain stateful structs driven by explicit methods;
// status propagation happens through typed callback handlers, and every
// timer and network call is cancellable and deadline-bounded.
package draftlib

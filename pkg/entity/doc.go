// Package entity memoizes fetched entities and orchestrates the API calls
// that populate them.
//
// Each canonical [ref.ID] maps to exactly one [Record] for the lifetime of a
// page. [Orchestrator.Resolve] creates the record synchronously on first use
// and starts the primary fetch; later calls return the same record, reflecting
// whatever has been fetched so far. Once the primary fetch succeeds,
// kind-specific supplementary fetches run concurrently, joined by a [Latch].
// Subscribers are notified after the primary fetch and again each time the
// latch drains to zero, so cards fill in progressively.
//
// Fetch errors never escape Resolve. They are stored on the record and
// rendered in place of the card.
package entity

// Package render maps entity snapshots to card markup.
//
// Rendering is a pure function of a [entity.Snapshot] and the [Viewer]: a
// per-kind view model is built from the raw API fields, then passed to an
// embedded mustache template. Snapshots may be partially populated; every
// supplementary field is optional, so the same record can be rendered again
// as fetches complete.
//
// [Renderer.Text] renders the same view models for terminals.
package render

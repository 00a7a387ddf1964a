// Package integrations provides the shared HTTP client used to talk to the
// code-hosting site's REST API.
//
// # Client
//
// [Client] wraps net/http with the behavior every API call needs:
//
//   - Bearer authentication from a [TokenSource], re-read on every request so a
//     freshly entered token takes effect immediately
//   - Retry-without-auth: a transport failure (no HTTP status) is retried
//     exactly once with the credential stripped, then reported as a
//     connection error
//   - Status classification into the [errors] fetch taxonomy via [Classify]
//   - Deduplication of identical in-flight GETs (singleflight)
//   - Optional caching of successful GET responses in a [store.Store]
//   - [observability] HTTP hooks around every request
//
// Site-specific endpoints live in the [github] subpackage.
//
// [errors]: github.com/matzehuels/hovercard/pkg/errors
// [store.Store]: github.com/matzehuels/hovercard/pkg/store.Store
// [observability]: github.com/matzehuels/hovercard/pkg/observability
// [github]: github.com/matzehuels/hovercard/pkg/integrations/github
package integrations

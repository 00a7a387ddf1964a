// Package extract finds entity references in page markup.
//
// Extraction is table driven. A [Registry] holds [Rule]s ordered by priority;
// each rule pairs a CSS selector with a [Strategy] that reads raw reference
// components from a matched element. The [Resolver] turns those components
// into canonical [ref.ID]s, applies name validation and self-suppression,
// rewrites compound slugs such as "octocat/Hello-World#42" into separately
// addressable spans, and records the outcome in a [Markers] table so that no
// element is ever evaluated twice.
//
// # Strategies
//
//   - [Text]: the element's visible text
//   - [Attr]: an attribute value
//   - [Link]: the element's resolved href
//   - [RelatedLink]: the href of an enclosing or preceding link
//   - [NextText]: owner from the element, repo from the next text node
//   - [Slug]: a compound "owner/repo[#N|@sha]" slug in the element's text
//   - [Skip]: claim the element without producing a reference
//
// # Markers
//
// Every evaluated element ends up either marked with a reference or
// skip-marked. Elements inside a marked element and containers of a marked
// element are never evaluated again. Later, broader rules (such as "any
// link") therefore cannot re-claim what earlier rules produced.
package extract

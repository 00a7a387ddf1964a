// Package ref defines reference kinds, canonical identifiers and the name rules
// shared by every extraction strategy.
//
// # Identifiers
//
// An [ID] is a tagged value: its [Kind] selects which components are meaningful,
// and [ID.String] renders the canonical identifier used as the entity cache key
// and as the seed for API paths:
//
//	User     octocat
//	Repo     octocat/Hello-World
//	Issue    octocat/Hello-World#42
//	Comment  octocat/Hello-World:1234567
//	Commit   octocat/Hello-World@7fd1a60
//
// Because IDs compare by kind as well as by components, two kinds never collide
// even where their string forms could.
//
// # Name Rules
//
// [ValidUser] and [ValidRepo] check legal login and repository name shapes.
// [IsReservedUser] reports first-level site routes ("settings", "orgs") and
// [IsReservedRepo] the profile routes ("followers") that look like names but
// never identify an account or a repository.
package ref

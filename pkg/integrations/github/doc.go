// Package github provides the REST API endpoints behind hover cards.
//
// # Usage
//
//	client := github.NewClient(github.Options{Tokens: tokens})
//	user, err := client.User(ctx, "octocat")
//	following, err := client.IsFollowing(ctx, "octocat")
//
// Entity payloads are returned as raw [Object] maps; the card renderer reads
// the fields it needs and supplementary fetches merge extra fields in.
//
// # Relationship endpoints
//
// Follow and star state is exposed through 204/404 endpoints. [Client.IsFollowing],
// [Client.FollowsUser] and [Client.IsStarred] map 404 to false rather than an
// error.
//
// # Authentication
//
// A personal access token is optional. Anonymous clients are limited to 60
// requests per hour and cannot read follow or star state. Tokens can be
// obtained interactively with [OAuthClient] using the device flow.
package github

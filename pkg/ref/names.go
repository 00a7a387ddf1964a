package ref

import (
	"regexp"
	"strings"
)

var (
	// Logins: 1-39 alphanumerics or single hyphens, no leading or trailing hyphen.
	validUser = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9]|-[a-zA-Z0-9]){0,38}$`)
	// Repository names: 1-100 alphanumerics, hyphens, underscores or dots.
	validRepo = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)
	validSHA  = regexp.MustCompile(`^[0-9a-f]{7,40}$`)
)

// reservedUsers holds first-level site routes that can never be account
// names. Organizations such as "actions" own real repositories and are not
// listed.
var reservedUsers = words(`
	about account apps business codespaces collections contact
	customer-stories dashboard enterprise explore features gist issues join
	login logout marketplace new notifications organizations orgs pricing
	pulls readme search security sessions settings site sponsors stars team
	topics trending users watching`)

// reservedRepos holds profile routes that sit where a repository name would.
var reservedRepos = words(`followers following repositories`)

func words(s string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		m[w] = struct{}{}
	}
	return m
}

// ValidUser reports whether login is a legal user or organization name.
func ValidUser(login string) bool {
	return len(login) <= 39 && validUser.MatchString(login) && !IsReservedUser(login)
}

// ValidRepo reports whether name is a legal repository name.
func ValidRepo(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return validRepo.MatchString(name) && !IsReservedRepo(name)
}

// ValidSHA reports whether sha looks like an abbreviated or full commit hash.
func ValidSHA(sha string) bool {
	return validSHA.MatchString(sha)
}

// IsReservedUser reports whether name is a site route in login position.
func IsReservedUser(name string) bool {
	_, ok := reservedUsers[strings.ToLower(name)]
	return ok
}

// IsReservedRepo reports whether name is a profile route in repository
// position.
func IsReservedRepo(name string) bool {
	_, ok := reservedRepos[strings.ToLower(name)]
	return ok
}

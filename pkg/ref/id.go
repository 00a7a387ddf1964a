package ref

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is a canonical reference identifier. Only the components relevant to
// Kind are set; the zero value of the others keeps IDs comparable so they can
// be used directly as map keys.
type ID struct {
	Kind    Kind
	Owner   string // login for users, owner login otherwise
	Repo    string
	Number  int    // issue or pull request number
	Comment int64  // issue comment id
	SHA     string // commit sha
}

// User returns the identifier of a user or organization.
func User(login string) ID { return ID{Kind: KindUser, Owner: login} }

// Repo returns the identifier of a repository.
func Repo(owner, name string) ID { return ID{Kind: KindRepo, Owner: owner, Repo: name} }

// Issue returns the identifier of an issue or pull request.
func Issue(owner, name string, number int) ID {
	return ID{Kind: KindIssue, Owner: owner, Repo: name, Number: number}
}

// Comment returns the identifier of an issue comment.
func Comment(owner, name string, id int64) ID {
	return ID{Kind: KindComment, Owner: owner, Repo: name, Comment: id}
}

// Commit returns the identifier of a commit.
func Commit(owner, name, sha string) ID {
	return ID{Kind: KindCommit, Owner: owner, Repo: name, SHA: sha}
}

// Slug returns "owner/name" for repository-scoped IDs and the login for users.
func (id ID) Slug() string {
	if id.Kind == KindUser {
		return id.Owner
	}
	return id.Owner + "/" + id.Repo
}

// RepoID returns the repository an ID belongs to. For users it returns the
// zero ID.
func (id ID) RepoID() ID {
	if id.Kind == KindUser || id.Kind == KindSkip {
		return ID{}
	}
	return Repo(id.Owner, id.Repo)
}

// String returns the canonical identifier.
func (id ID) String() string {
	switch id.Kind {
	case KindUser:
		return id.Owner
	case KindRepo:
		return id.Slug()
	case KindIssue:
		return id.Slug() + "#" + strconv.Itoa(id.Number)
	case KindComment:
		return id.Slug() + ":" + strconv.FormatInt(id.Comment, 10)
	case KindCommit:
		return id.Slug() + "@" + id.SHA
	}
	return ""
}

// Valid reports whether every component relevant to the kind is well formed.
func (id ID) Valid() bool {
	switch id.Kind {
	case KindUser:
		return ValidUser(id.Owner)
	case KindRepo:
		return ValidUser(id.Owner) && ValidRepo(id.Repo)
	case KindIssue:
		return ValidUser(id.Owner) && ValidRepo(id.Repo) && id.Number > 0
	case KindComment:
		return ValidUser(id.Owner) && ValidRepo(id.Repo) && id.Comment > 0
	case KindCommit:
		return ValidUser(id.Owner) && ValidRepo(id.Repo) && ValidSHA(id.SHA)
	}
	return false
}

// Parse parses a canonical identifier of the given kind.
func Parse(kind Kind, s string) (ID, error) {
	var id ID
	switch kind {
	case KindUser:
		id = User(s)
	case KindRepo:
		owner, name, ok := strings.Cut(s, "/")
		if !ok {
			return ID{}, fmt.Errorf("repo identifier %q: missing '/'", s)
		}
		id = Repo(owner, name)
	case KindIssue:
		slug, num, ok := strings.Cut(s, "#")
		if !ok {
			return ID{}, fmt.Errorf("issue identifier %q: missing '#'", s)
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return ID{}, fmt.Errorf("issue identifier %q: %w", s, err)
		}
		owner, name, _ := strings.Cut(slug, "/")
		id = Issue(owner, name, n)
	case KindComment:
		i := strings.LastIndexByte(s, ':')
		if i < 0 {
			return ID{}, fmt.Errorf("comment identifier %q: missing ':'", s)
		}
		n, err := strconv.ParseInt(s[i+1:], 10, 64)
		if err != nil {
			return ID{}, fmt.Errorf("comment identifier %q: %w", s, err)
		}
		owner, name, _ := strings.Cut(s[:i], "/")
		id = Comment(owner, name, n)
	case KindCommit:
		slug, sha, ok := strings.Cut(s, "@")
		if !ok {
			return ID{}, fmt.Errorf("commit identifier %q: missing '@'", s)
		}
		owner, name, _ := strings.Cut(slug, "/")
		id = Commit(owner, name, sha)
	default:
		return ID{}, fmt.Errorf("cannot parse identifier of kind %s", kind)
	}
	if !id.Valid() {
		return ID{}, fmt.Errorf("invalid %s identifier %q", kind, s)
	}
	return id, nil
}

// ParseAny infers the kind from the shape of s and parses it. It accepts the
// canonical forms listed in the package documentation.
func ParseAny(s string) (ID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	switch {
	case strings.Contains(s, "#"):
		return Parse(KindIssue, s)
	case strings.Contains(s, "@"):
		return Parse(KindCommit, s)
	case strings.Contains(s, ":"):
		return Parse(KindComment, s)
	case strings.Contains(s, "/"):
		return Parse(KindRepo, s)
	default:
		return Parse(KindUser, s)
	}
}

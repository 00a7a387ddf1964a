package ref

import "fmt"

// Kind identifies what a reference points at.
type Kind int

// Reference kinds. KindSkip means "nothing here" and never reaches the cache.
const (
	KindSkip Kind = iota
	KindUser
	KindRepo
	KindIssue
	KindComment
	KindCommit
)

var kindNames = [...]string{
	KindSkip:    "skip",
	KindUser:    "user",
	KindRepo:    "repo",
	KindIssue:   "issue",
	KindComment: "comment",
	KindCommit:  "commit",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind is the inverse of [Kind.String].
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return KindSkip, fmt.Errorf("unknown reference kind %q", s)
}

// Kinds lists every kind that identifies an entity.
func Kinds() []Kind {
	return []Kind{KindUser, KindRepo, KindIssue, KindComment, KindCommit}
}

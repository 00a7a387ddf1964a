package extract

import "github.com/matzehuels/hovercard/pkg/ref"

// CardClass is the class carried by rendered cards. Everything inside a card
// is denylisted so cards never decorate themselves.
const CardClass = "hovercard"

// DefaultRules is the rule table for the code-hosting site's markup.
var DefaultRules = []Rule{
	// Explicit references.
	{Priority: 10, Selector: ".user-mention", Strategy: Text, Kind: ref.KindUser},
	{Priority: 10, Selector: ".team-mention", Strategy: Skip},
	{Priority: 12, Selector: "[data-hovercard-login]", Strategy: Attr("data-hovercard-login"), Kind: ref.KindUser},
	{Priority: 14, Selector: "a.author, .commit-author, .opened-by > a", Strategy: Text, Kind: ref.KindUser},
	{Priority: 16, Selector: "img.avatar[alt^='@']", Strategy: Attr("alt"), Kind: ref.KindUser},

	// Owner and repo shown as separate text ("owner / repo").
	{Priority: 20, Selector: ".repo-and-owner .owner, .f4 .text-normal", Strategy: NextText},

	// Compound slugs in text.
	{Priority: 30, Selector: ".commit-ref-slug, .markdown-body code, .repo-slug", Strategy: Slug},

	// Avatars without an alt login point at their enclosing link.
	{Priority: 40, Selector: "img.avatar, img.avatar-user", Strategy: RelatedLink},

	// Links. Specific containers first, then any link.
	{Priority: 50, Selector: ".markdown-body a[href], .comment-body a[href]", Strategy: Link},
	{Priority: 60, Selector: ".commit-link, .issue-link, .js-navigation-open", Strategy: Link},
	{Priority: 90, Selector: "a[href]", Strategy: Link},
}

// DefaultDenylist keeps cards out of the site's own chrome and out of cards.
var DefaultDenylist = []string{
	"." + CardClass,
	"header",
	"nav",
	"footer",
	".Header",
	".UnderlineNav",
	".pagehead-actions",
	".pagination",
	".js-header-wrapper",
	"[data-hovercard-ignore]",
}

// DefaultRegistry returns a registry built from DefaultRules and
// DefaultDenylist.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(DefaultRules, DefaultDenylist)
	if err != nil {
		panic(err)
	}
	return reg
}

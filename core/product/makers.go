package product

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadspider/leadspider/internal/netutil"
)

// discoverMakers collects profile links, scoped to the team section when the
// page has one, confirmed makers first and capped at MaxMakers.
func (r *Resolver) discoverMakers(page *entityPage) []Contact {
	scope := r.teamSection(page.doc)
	makers := r.profileLinks(page, scope)
	if len(makers) == 0 && scope != page.doc.Selection {
		makers = r.profileLinks(page, page.doc.Selection)
	}
	sort.SliceStable(makers, func(i, j int) bool {
		return makers[i].IsConfirmedMaker && !makers[j].IsConfirmedMaker
	})
	if len(makers) > r.cfg.MaxMakers {
		makers = makers[:r.cfg.MaxMakers]
	}
	return makers
}

// teamSection returns the section around a team heading, or the whole page.
func (r *Resolver) teamSection(doc *goquery.Document) *goquery.Selection {
	var section *goquery.Selection
	doc.Find("h1, h2, h3, h4, h5, h6, [class*='heading'], [class*='title']").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.ToLower(strings.Join(strings.Fields(h.Text()), " "))
		if text == "" || len(text) > 60 || !r.isTeamHeading(text) {
			return true
		}
		container := h.Closest("section, [class*='section'], article, aside")
		if container.Length() == 0 {
			container = h.Parent()
		}
		if container.Find("a[href*='" + r.cfg.ProfilePathPrefix + "']").Length() == 0 {
			return true
		}
		section = container
		return false
	})
	if section == nil {
		return doc.Selection
	}
	return section
}

func (r *Resolver) isTeamHeading(text string) bool {
	for _, heading := range r.cfg.TeamHeadings {
		if text == heading || strings.HasPrefix(text, heading+" ") || strings.HasSuffix(text, " "+heading) {
			return true
		}
	}
	return false
}

func (r *Resolver) profileLinks(page *entityPage, scope *goquery.Selection) []Contact {
	var makers []Contact
	index := map[string]int{}
	badge := labelPattern(r.cfg.MakerLabels)
	scope.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		profileURL, handle, ok := r.profileURL(page, a.AttrOr("href", ""))
		if !ok {
			return
		}
		name := personName(a)
		confirmed := badge.MatchString(r.nearbyText(page, a))
		if i, dup := index[profileURL]; dup {
			if makers[i].Name == handle && name != "" {
				makers[i].Name = name
			}
			makers[i].IsConfirmedMaker = makers[i].IsConfirmedMaker || confirmed
			return
		}
		if name == "" {
			name = handle
		}
		index[profileURL] = len(makers)
		makers = append(makers, Contact{Name: name, ProfileURL: profileURL, IsConfirmedMaker: confirmed})
	})
	return makers
}

// profileURL normalises a profile link to scheme://host/<prefix><handle>.
func (r *Resolver) profileURL(page *entityPage, href string) (string, string, bool) {
	resolved, ok := netutil.ResolveHref(page.base, href)
	if !ok || !netutil.SameSite(resolved, page.base.String()) {
		return "", "", false
	}
	parsed, err := url.Parse(resolved)
	if err != nil || !strings.HasPrefix(parsed.Path, r.cfg.ProfilePathPrefix) {
		return "", "", false
	}
	handle, _, _ := strings.Cut(strings.TrimPrefix(parsed.Path, r.cfg.ProfilePathPrefix), "/")
	if handle == "" {
		return "", "", false
	}
	return parsed.Scheme + "://" + parsed.Host + r.cfg.ProfilePathPrefix + handle, handle, true
}

func personName(a *goquery.Selection) string {
	for _, candidate := range []string{
		a.Text(),
		a.AttrOr("aria-label", ""),
		a.AttrOr("title", ""),
		a.Find("img[alt]").First().AttrOr("alt", ""),
	} {
		if name := strings.Join(strings.Fields(candidate), " "); name != "" {
			return name
		}
	}
	return ""
}

// nearbyText is the text of the link's own item: the widest ancestor, at most
// maxItemDepth levels up, that holds no other profile. In a flat list the item
// is the link plus the siblings that follow it up to the next profile link.
func (r *Resolver) nearbyText(page *entityPage, a *goquery.Selection) string {
	parts := []string{a.Text(), a.AttrOr("class", ""), a.AttrOr("aria-label", "")}
	item := a
	parent := a.Parent()
	for depth := 0; depth < maxItemDepth && parent.Length() > 0 && !parent.Is("body, html"); depth++ {
		if r.profileCount(page, parent) > 1 {
			break
		}
		item = parent
		parent = parent.Parent()
	}
	if item != a {
		return strings.Join(append(parts, item.Text()), " ")
	}
	for s := a.Next(); s.Length() > 0; s = s.Next() {
		if r.profileCount(page, s) > 0 {
			break
		}
		parts = append(parts, s.Text(), s.AttrOr("class", ""), s.AttrOr("aria-label", ""))
	}
	return strings.Join(parts, " ")
}

const maxItemDepth = 3

// profileCount counts distinct profiles linked from sel, sel itself included.
func (r *Resolver) profileCount(page *entityPage, sel *goquery.Selection) int {
	seen := map[string]struct{}{}
	sel.Find("a[href]").AddSelection(sel.Filter("a[href]")).Each(func(_ int, link *goquery.Selection) {
		if profileURL, _, ok := r.profileURL(page, link.AttrOr("href", "")); ok {
			seen[profileURL] = struct{}{}
		}
	})
	return len(seen)
}

func labelPattern(labels []string) *regexp.Regexp {
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(l)))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

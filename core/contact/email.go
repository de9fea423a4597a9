package contact

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/leadspider/leadspider/internal/netutil"
)

var (
	emailPattern   = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	validEmail     = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9\-]+(\.[a-z0-9\-]+)*\.[a-z]{2,}$`)
	assetSuffixes  = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js"}
	junkLocalParts = map[string]struct{}{
		"name": {}, "your": {}, "you": {}, "email": {}, "user": {}, "username": {}, "johndoe": {},
		"john.doe": {}, "jane.doe": {}, "firstname.lastname": {}, "first.last": {},
	}
)

func isEmailRune(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("._%+-@", r))
}

// CleanEmail trims text glued onto an email address: it stops at the first
// character that cannot belong to an address, then cuts the domain at the
// first known top-level-domain boundary. It returns "" when nothing valid
// remains.
func CleanEmail(raw string, tlds map[string]struct{}) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "mailto:"), "MAILTO:")
	if i := strings.IndexFunc(raw, func(r rune) bool { return !isEmailRune(r) }); i >= 0 {
		raw = raw[:i]
	}
	local, domain, ok := strings.Cut(raw, "@")
	if !ok || local == "" || domain == "" {
		return ""
	}
	if i := strings.IndexByte(domain, '@'); i >= 0 {
		domain = domain[:i]
	}
	domain = strings.Trim(domain, ".-")
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return ""
	}

	last := labels[len(labels)-1]
	if _, known := tlds[strings.ToLower(last)]; !known {
		switch {
		case camelTLD(last, tlds) != "":
			labels[len(labels)-1] = camelTLD(last, tlds)
		case len(labels) > 2 && isKnownTLD(labels[len(labels)-2], tlds):
			labels = labels[:len(labels)-1]
		default:
			prefix := longestTLDPrefix(strings.ToLower(last), tlds)
			if prefix == "" {
				return ""
			}
			labels[len(labels)-1] = prefix
		}
	}

	email := strings.ToLower(strings.Trim(local, ".") + "@" + strings.Join(labels, "."))
	if !validEmail.MatchString(email) {
		return ""
	}
	return email
}

func isKnownTLD(label string, tlds map[string]struct{}) bool {
	_, ok := tlds[strings.ToLower(label)]
	return ok
}

// camelTLD handles "comVisit": the TLD ends where an upper-case letter starts.
func camelTLD(label string, tlds map[string]struct{}) string {
	for i, r := range label {
		if i > 0 && unicode.IsUpper(r) {
			if isKnownTLD(label[:i], tlds) {
				return strings.ToLower(label[:i])
			}
			return ""
		}
	}
	return ""
}

func longestTLDPrefix(label string, tlds map[string]struct{}) string {
	best := ""
	for i := 2; i <= len(label); i++ {
		if _, ok := tlds[label[:i]]; ok {
			best = label[:i]
		}
	}
	return best
}

func tldSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, t := range list {
		set[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))] = struct{}{}
	}
	return set
}

// emailFilter holds the per-engine email heuristics.
type emailFilter struct {
	tlds        map[string]struct{}
	freeMail    []string
	placeholder []string
	canonical   []string
	maxLen      int
}

func newEmailFilter(opts Options) emailFilter {
	return emailFilter{
		tlds:        tldSet(opts.EmailTLDs),
		freeMail:    opts.FreeMailDomains,
		placeholder: opts.PlaceholderDomains,
		canonical:   opts.CanonicalLocalParts,
		maxLen:      opts.MaxEmailLength,
	}
}

// Extract returns the cleaned, plausible addresses in text in first-seen order.
func (f emailFilter) Extract(text string) []string {
	matches := emailPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		email := f.Clean(m)
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

// Clean normalises one raw match and rejects placeholders and oversized values.
func (f emailFilter) Clean(raw string) string {
	if len(raw) > 4*f.maxLen {
		return ""
	}
	email := CleanEmail(raw, f.tlds)
	if email == "" || len(email) > f.maxLen {
		return ""
	}
	local, domain, _ := strings.Cut(email, "@")
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(email, suffix) {
			return ""
		}
	}
	if _, junk := junkLocalParts[local]; junk {
		return ""
	}
	if netutil.HostMatches(domain, f.placeholder) {
		return ""
	}
	return email
}

func (f emailFilter) isFreeMail(email string) bool {
	_, domain, _ := strings.Cut(email, "@")
	return netutil.HostMatches(domain, f.freeMail)
}

// Best ranks candidates: business domains before free-mail providers, then
// canonical role addresses (contact@, info@, ...) in configured order, then
// first-seen order.
func (f emailFilter) Best(candidates []string) string {
	best, bestScore := "", 1<<30
	for i, email := range candidates {
		score := i
		local, _, _ := strings.Cut(email, "@")
		rank := len(f.canonical)
		for j, c := range f.canonical {
			if local == c {
				rank = j
				break
			}
		}
		score += rank * 1_000
		if f.isFreeMail(email) {
			score += 1_000_000
		}
		if score < bestScore {
			best, bestScore = email, score
		}
	}
	return best
}

// synthesize tries role addresses on domain and keeps the first one that
// literally appears in the visible text.
func (f emailFilter) synthesize(domain, visibleText string, locals []string) string {
	if domain == "" || visibleText == "" {
		return ""
	}
	lower := strings.ToLower(visibleText)
	for _, local := range locals {
		candidate := local + "@" + domain
		if strings.Contains(lower, candidate) {
			return candidate
		}
	}
	return ""
}

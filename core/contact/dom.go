package contact

import (
	"context"
	"fmt"

	"github.com/leadspider/leadspider/core/browser"
)

// emailCandidatesScript collects text blobs that may carry an address: footer
// and contact regions, data attributes, short keyword elements, inline scripts
// and meta contents.
const emailCandidatesScript = `(m) => {
	const out = [];
	const push = (s) => { if (s && typeof s === "string") out.push(s.slice(0, 20000)); };
	const classOf = (el) => typeof el.className === "string" ? el.className : (el.getAttribute("class") || "");
	const matches = (el) => {
		const tag = el.tagName.toLowerCase();
		if (m.tags.includes(tag)) return true;
		const role = (el.getAttribute("role") || "").toLowerCase();
		if (role && m.roles.includes(role)) return true;
		const idc = ((el.id || "") + " " + classOf(el)).toLowerCase();
		return idc.trim() !== "" && m.tokens.some((t) => idc.includes(t));
	};
	document.querySelectorAll("body *").forEach((el) => { if (matches(el)) push(el.innerText); });
	document.querySelectorAll("[data-email],[data-mail],[data-contact]").forEach((el) => {
		push(el.getAttribute("data-email"));
		push(el.getAttribute("data-mail"));
		push(el.getAttribute("data-contact"));
	});
	document.querySelectorAll("a,p,span,li,address,div").forEach((el) => {
		if (el.children.length > 3) return;
		const t = (el.innerText || "").trim();
		if (t.length > 0 && t.length < 300 && /e-?mail|contact|reach|write to/i.test(t)) push(t);
	});
	document.querySelectorAll("script:not([src])").forEach((s) => push(s.textContent));
	document.querySelectorAll("meta[content]").forEach((mt) => push(mt.getAttribute("content")));
	return out;
}`

// socialScanScript finds icon-like interactive elements and resolves each to
// the nearest enclosing or contained link.
const socialScanScript = `() => {
	const out = { twitter: [], linkedin: [] };
	const classOf = (el) => typeof el.className === "string" ? el.className : (el.getAttribute("class") || "");
	const resolve = (el) => {
		const a = el.closest("a[href]") || (el.querySelector ? el.querySelector("a[href]") : null);
		return a ? a.href : "";
	};
	const signal = (el) => {
		const use = el.querySelector ? el.querySelector("use") : null;
		return [
			el.getAttribute("href") || "",
			classOf(el),
			el.getAttribute("aria-label") || "",
			el.getAttribute("title") || "",
			el.getAttribute("alt") || "",
			el.getAttribute("data-icon") || "",
			use ? (use.getAttribute("href") || use.getAttribute("xlink:href") || "") : "",
		].join(" ").toLowerCase();
	};
	document.querySelectorAll("a, button, [role='link'], i, svg, span[class*='icon'], img[alt]").forEach((el) => {
		const s = signal(el);
		const href = resolve(el);
		if (!href) return;
		if (/twitter|x\.com|fa-x-twitter|icon-x\b/.test(s)) out.twitter.push(href);
		if (/linkedin/.test(s)) out.linkedin.push(href);
	});
	return out;
}`

// pageWideScript returns every link target plus the rendered text.
const pageWideScript = `() => ({
	links: Array.from(document.querySelectorAll("a[href]")).map((a) => a.href),
	text: document.body ? document.body.innerText : "",
})`

// scrollStepScript scrolls to step/steps of the document height.
const scrollStepScript = `(step, steps) => {
	const h = document.body ? document.body.scrollHeight : 0;
	window.scrollTo(0, Math.floor(h * step / steps));
	return h;
}`

type socialHits struct {
	Twitter  []string `json:"twitter"`
	LinkedIn []string `json:"linkedin"`
}

type pageWide struct {
	Links []string `json:"links"`
	Text  string   `json:"text"`
}

func (e *Engine) domEmail(ctx context.Context, page browser.Page) (string, error) {
	var blobs []string
	if err := browser.EvaluateInto(ctx, page, emailCandidatesScript, &blobs, e.opts.Footer.scriptArg()); err != nil {
		return "", fmt.Errorf("email candidates: %w", err)
	}
	var candidates []string
	for _, blob := range blobs {
		candidates = append(candidates, e.emails.Extract(blob)...)
	}
	return e.emails.Best(candidates), nil
}

func (e *Engine) domSocial(ctx context.Context, page browser.Page) (twitter, linkedIn string, err error) {
	var hits socialHits
	if err := browser.EvaluateInto(ctx, page, socialScanScript, &hits); err != nil {
		return "", "", fmt.Errorf("social scan: %w", err)
	}
	for _, href := range hits.Twitter {
		if handle := TwitterHandle(href); handle != "" && !ignoredHandle(handle, e.opts.IgnoreHandles) {
			twitter = handle
			break
		}
	}
	for _, href := range hits.LinkedIn {
		if li := CleanLinkedIn(href); li != "" {
			linkedIn = li
			break
		}
	}
	return twitter, linkedIn, nil
}

func (e *Engine) domPageWide(ctx context.Context, page browser.Page) (Bundle, error) {
	var wide pageWide
	if err := browser.EvaluateInto(ctx, page, pageWideScript, &wide); err != nil {
		return Bundle{}, fmt.Errorf("page-wide scan: %w", err)
	}
	return e.classifyRaw(wide.Links, wide.Text), nil
}

// classifyRaw classifies absolute link targets and free text without markup.
func (e *Engine) classifyRaw(links []string, text string) Bundle {
	var b Bundle
	var emails []string
	for _, href := range links {
		switch {
		case len(href) > 7 && (href[:7] == "mailto:" || href[:7] == "MAILTO:"):
			if email := e.emails.Clean(href); email != "" {
				emails = append(emails, email)
			}
		case IsTwitterURL(href):
			if b.Twitter == "" {
				if handle := TwitterHandle(href); handle != "" && !ignoredHandle(handle, e.opts.IgnoreHandles) {
					b.Twitter = handle
				}
			}
		case IsLinkedInURL(href):
			if b.LinkedIn == "" {
				b.LinkedIn = CleanLinkedIn(href)
			}
		}
	}
	emails = append(emails, e.emails.Extract(text)...)
	b.Email = e.emails.Best(emails)
	return b
}

func (e *Engine) scrollStep(ctx context.Context, page browser.Page, step, steps int) error {
	_, err := page.Evaluate(ctx, scrollStepScript, step, steps)
	return err
}

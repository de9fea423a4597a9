package contact

import (
	"hash/fnv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// domSignature fingerprints the element tree in document order: tag names,
// attribute names, link targets and direct text. Two renders share a
// signature only when nothing a contact heuristic reads has changed.
func domSignature(doc *goquery.Document) uint64 {
	h := fnv.New64a()
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		if node == nil || node.Data == "" {
			return
		}
		h.Write([]byte("<" + strings.ToLower(node.Data)))
		for _, attr := range node.Attr {
			name := strings.ToLower(attr.Key)
			if name == "style" || strings.HasPrefix(name, "data-v-") {
				continue
			}
			h.Write([]byte(" " + name))
			if name == "href" || name == "content" || strings.HasPrefix(name, "data-") {
				h.Write([]byte("=" + attr.Val))
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.TextNode {
				if text := strings.TrimSpace(child.Data); text != "" {
					h.Write([]byte("|" + text))
				}
			}
		}
	})
	return h.Sum64()
}

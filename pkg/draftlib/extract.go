package draftlib

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractURLs returns every external resource URL embedded in an HTML
// fragment, in document order. It collects img/source src attributes and
// srcset candidates, skipping data: and fragment-only references.
// Malformed markup never fails: the tokenizer consumes what it can.
func ExtractURLs(markup string) []string {
	var urls []string
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return urls
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		tag := string(name)
		if tag != "img" && tag != "source" {
			continue
		}
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			switch string(key) {
			case "src":
				if u := cleanResourceURL(string(val)); u != "" {
					urls = append(urls, u)
				}
			case "srcset":
				for _, cand := range strings.Split(string(val), ",") {
					fields := strings.Fields(strings.TrimSpace(cand))
					if len(fields) == 0 {
						continue
					}
					if u := cleanResourceURL(fields[0]); u != "" {
						urls = append(urls, u)
					}
				}
			}
		}
	}
}

func cleanResourceURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" || strings.HasPrefix(u, "#") || strings.HasPrefix(u, "data:") {
		return ""
	}
	return u
}

package dev

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/modkit-dev/modkit/internal/xerrors"
)

// ExtractModuleScripts parses an HTML document and returns the src URLs
// of its module script tags. These seed the module graph when a page is
// served, so a change to a module can find importers even before the
// browser requests it.
func ExtractModuleScripts(content []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, xerrors.New("M003").Wrap(err)
	}

	var srcs []string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			var src, typ string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "src":
					src = attr.Val
				case "type":
					typ = attr.Val
				}
			}
			if typ == "module" && src != "" && strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "/@modkit/") {
				srcs = append(srcs, src)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)

	return srcs, nil
}

// InjectClientScript adds the HMR client script tag to an HTML page,
// before </head> when present, else before </body>, else appended.
func InjectClientScript(page string) string {
	if idx := strings.Index(page, "</head>"); idx != -1 {
		return page[:idx] + ClientScriptTag + "\n" + page[idx:]
	}
	if idx := strings.LastIndex(page, "</body>"); idx != -1 {
		return page[:idx] + ClientScriptTag + "\n" + page[idx:]
	}
	return page + ClientScriptTag
}

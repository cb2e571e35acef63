package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// dropConsentBanners removes elements that look like cookie or consent
// banners and returns how many were removed. Banners nested in a removed
// banner are not counted.
func dropConsentBanners(doc *goquery.Document) int {
	marked := make(map[*html.Node]bool)
	var banners []*goquery.Selection
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		for p := n.Parent; p != nil; p = p.Parent {
			if marked[p] {
				return
			}
		}
		if isBoilerplateContainer(n) {
			marked[n] = true
			banners = append(banners, s)
		}
	})
	for _, s := range banners {
		s.Remove()
	}
	return len(banners)
}

// isBoilerplateContainer returns true if the element looks like a cookie/consent banner.
func isBoilerplateContainer(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	// Check id and class attributes for common markers
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && !strings.HasPrefix(key, "data-") && key != "aria-label" && key != "role" {
			continue
		}
		val := strings.ToLower(attr.Val)
		if containsAny(val, []string{"cookie", "consent", "gdpr"}) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

package resolver

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
)

var (
	// Quoted values cover `file:"..."`, `sources:[{src:'...'}]` and relative names alike.
	quotedManifest = regexp.MustCompile("[\"'`]([^\"'`\\s<>]*?\\.m3u8[^\"'`\\s<>]*)[\"'`]")
	bareManifest   = regexp.MustCompile(`https?://[^\s"'<>\\]+?\.m3u8[^\s"'<>\\]*`)
)

// captchaMarkers are fragments of the major challenge widgets.
var captchaMarkers = []string{
	"g-recaptcha",
	"hcaptcha",
	"cf-turnstile",
	"challenges.cloudflare.com",
}

// IsCaptcha reports whether html is a challenge page.
func IsCaptcha(html string) bool {
	lower := strings.ToLower(html)
	return lo.SomeBy(captchaMarkers, func(m string) bool {
		return strings.Contains(lower, m)
	})
}

// FindManifests returns every manifest URL mentioned in html or in its packed
// scripts, resolved against base, in order of appearance.
func FindManifests(html, base string) []string {
	texts := append([]string{html}, Unpack(html)...)

	var found []string
	for _, text := range texts {
		text = strings.ReplaceAll(text, `\/`, `/`)
		for _, m := range quotedManifest.FindAllStringSubmatch(text, -1) {
			found = append(found, m[1])
		}
		found = append(found, bareManifest.FindAllString(text, -1)...)
	}

	return ManifestURLs(lo.FilterMap(found, func(ref string, _ int) (string, bool) {
		abs, err := absolute(base, ref)
		return abs, err == nil
	}))
}

// IframeSource returns the src of the first iframe matching selector, resolved against base.
func IframeSource(html, base, selector string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	src, ok := doc.Find(selector).First().Attr("src")
	src = strings.TrimSpace(src)
	if !ok || src == "" || strings.HasPrefix(src, "about:") {
		return "", false
	}

	abs, err := absolute(base, src)
	return abs, err == nil
}

func absolute(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

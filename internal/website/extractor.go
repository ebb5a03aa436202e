// Package website extracts contact and technology signals from a business
// website: the homepage plus a fixed set of likely contact/about subpaths.
package website

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/fetch"
	"github.com/mspscout/leadscout/internal/leads"
)

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// deobfuscator undoes the common email obfuscation tokens before a re-scan.
var deobfuscator = strings.NewReplacer(" [at] ", "@", "(at)", "@", " AT ", "@")

// Signals is the result of extracting one website.
type Signals struct {
	Emails             []string
	TechStack          []string
	HasITMention       bool
	HasExistingMSP     bool
	ComplianceMentions []string
	SSLValid           bool
	Outcome            leads.ScrapeOutcome
}

// Fetcher is the slice of the resilient fetcher the extractor needs.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Result, error)
}

// Extractor walks a site's fixed page set and derives signals.
type Extractor struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// New builds an Extractor.
func New(fetcher Fetcher, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{fetcher: fetcher, logger: logger}
}

// Extract fetches the homepage and subpaths of url and merges their signals.
// Subpage failures are tolerated silently; a homepage failure is recorded as
// a distinct outcome while subpages may still contribute. Callers must not
// invoke Extract with an empty url (that is the no-website case).
func (e *Extractor) Extract(ctx context.Context, url string) Signals {
	sig := Signals{
		Outcome:  leads.OutcomeOK,
		SSLValid: strings.HasPrefix(url, "https://"),
	}

	emails := make(map[string]bool)
	var rawAll, textAll strings.Builder

	for i, pageURL := range pageSet(url) {
		res, err := e.fetcher.Get(ctx, pageURL)
		if err != nil {
			if i == 0 {
				sig.Outcome = leads.OutcomeHomepageError
			}
			e.logger.Debug("page fetch failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
		if err != nil {
			if i == 0 {
				sig.Outcome = leads.OutcomeExtractError
			}
			e.logger.Debug("page parse failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}

		raw := string(res.Body)
		collectEmails(doc, raw, emails)
		rawAll.WriteString(strings.ToLower(raw))
		rawAll.WriteByte(' ')
		textAll.WriteString(strings.ToLower(visibleText(doc)))
		textAll.WriteByte(' ')
	}

	sig.Emails = filterEmails(emails)
	sig.TechStack, sig.HasExistingMSP = detectTech(rawAll.String())

	text := textAll.String()
	for _, kw := range itKeywords {
		if strings.Contains(text, kw) {
			sig.HasITMention = true
			break
		}
	}
	for _, kw := range complianceKeywords {
		if strings.Contains(text, kw) {
			sig.ComplianceMentions = append(sig.ComplianceMentions, kw)
			if len(sig.ComplianceMentions) == maxComplianceMentions {
				break
			}
		}
	}

	return sig
}

// pageSet returns the homepage followed by the fixed subpath probes.
func pageSet(url string) []string {
	base := strings.TrimRight(url, "/")
	pages := make([]string, 0, len(extraPaths)+1)
	pages = append(pages, url)
	for _, p := range extraPaths {
		pages = append(pages, base+p)
	}
	return pages
}

// visibleText returns the rendered text with script/style/noscript content
// removed. JSON-LD scripts stay in, so keywords that only appear in
// structured data still count.
func visibleText(doc *goquery.Document) string {
	clone := goquery.CloneDocument(doc)
	clone.Find("style, noscript").Remove()
	clone.Find("script").Each(func(_ int, s *goquery.Selection) {
		if t, _ := s.Attr("type"); t != "application/ld+json" {
			s.Remove()
		}
	})
	return strings.Join(strings.Fields(clone.Text()), " ")
}

// collectEmails merges the four extraction sources into the set: visible
// text, mailto links, JSON-LD contact fields, meta content, plus the
// de-obfuscation re-scan over the raw markup.
func collectEmails(doc *goquery.Document, raw string, emails map[string]bool) {
	for _, m := range emailRe.FindAllString(visibleText(doc), -1) {
		emails[m] = true
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(href, "mailto:") {
			return
		}
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		addr = strings.TrimSpace(addr)
		if strings.Contains(addr, "@") {
			emails[addr] = true
		}
	})

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		walkJSONLD(data, emails)
	})

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		for _, m := range emailRe.FindAllString(content, -1) {
			emails[m] = true
		}
	})

	for _, m := range emailRe.FindAllString(deobfuscator.Replace(raw), -1) {
		emails[m] = true
	}
}

// walkJSONLD recursively pulls email and contactPoint values out of a
// structured-data tree.
func walkJSONLD(data any, emails map[string]bool) {
	switch node := data.(type) {
	case map[string]any:
		for _, key := range []string{"email", "contactPoint"} {
			switch val := node[key].(type) {
			case string:
				if strings.Contains(val, "@") {
					emails[strings.TrimPrefix(val, "mailto:")] = true
				}
			case map[string]any, []any:
				walkJSONLD(val, emails)
			}
		}
		for _, v := range node {
			switch v.(type) {
			case map[string]any, []any:
				walkJSONLD(v, emails)
			}
		}
	case []any:
		for _, item := range node {
			walkJSONLD(item, emails)
		}
	}
}

// filterEmails applies the denylist, sorts for stable output and caps the
// result.
func filterEmails(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for addr := range set {
		lower := strings.ToLower(addr)
		junk := false
		for _, token := range emailDenylist {
			if strings.Contains(lower, token) {
				junk = true
				break
			}
		}
		if !junk {
			out = append(out, addr)
		}
	}
	sort.Strings(out)
	if len(out) > maxEmails {
		out = out[:maxEmails]
	}
	return out
}

// detectTech matches the signal registry against lowercased raw markup.
func detectTech(rawLower string) ([]string, bool) {
	var detected []string
	hasMSP := false
	for _, sig := range techSignals {
		for _, pattern := range sig.Patterns {
			if strings.Contains(rawLower, pattern) {
				detected = append(detected, sig.Product)
				if mspToolProducts[sig.Product] {
					hasMSP = true
				}
				break
			}
		}
	}
	return detected, hasMSP
}

// Package enrich implements the deterministic enricher of §4.1: pure,
// rule-based field derivation over normalized records, plus an
// optional bounded LLM overlay behind a narrow interface.
package enrich

import (
	"regexp"
	"strings"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

// EnricherVersion is stamped into every fingerprint; bump it whenever
// the rule set below changes meaning, so existing fingerprints
// correctly go stale.
const EnricherVersion = "enrich-v1"

var (
	brokenLinkEmpty = regexp.MustCompile(`\[[^\]]*\]\(\s*\)`)
	brokenLinkHash  = regexp.MustCompile(`\[[^\]]*\]\(#\)`)
	mdLinkPattern   = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	mdImagePattern  = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	headingPattern  = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)

	apiTagPattern           = regexp.MustCompile(`(?i)\bapi\b`)
	installationTagPattern  = regexp.MustCompile(`(?i)\binstall(ation)?\b`)
	configurationTagPattern = regexp.MustCompile(`(?i)\bconfig(uration)?\b`)
)

// Collection derives the collection field: existing collection if
// present, else spaceKey lowercased, else sourceSystem.
func Collection(existing, spaceKey string, sourceSystem models.SourceSystem) string {
	if existing != "" {
		return existing
	}
	if spaceKey != "" {
		return strings.ToLower(spaceKey)
	}
	return string(sourceSystem)
}

// PathTags derives tags from breadcrumbs, URL structure, and
// content-signal headings (api/installation/configuration).
func PathTags(breadcrumbs []string, url string, textMd string) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, b := range breadcrumbs {
		add(b)
	}
	for _, part := range strings.Split(url, "/") {
		if part == "" || strings.Contains(part, ".") {
			continue
		}
		add(part)
	}

	for _, h := range topLevelHeadings(textMd) {
		if apiTagPattern.MatchString(h) {
			add("api")
		}
		if installationTagPattern.MatchString(h) {
			add("installation")
		}
		if configurationTagPattern.MatchString(h) {
			add("configuration")
		}
	}
	return tags
}

func topLevelHeadings(textMd string) []string {
	matches := headingPattern.FindAllStringSubmatch(textMd, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Readability computes charsPerWord, wordsPerParagraph, and
// headingRatio over Markdown-stripped text, with zero-guarded
// denominators.
func Readability(textMd string) models.Readability {
	plain := stripMarkdown(textMd)
	words := strings.Fields(plain)
	paragraphs := nonEmptyParagraphs(plain)
	headings := topLevelHeadings(textMd)

	var charsPerWord, wordsPerParagraph, headingRatio float64
	if len(words) > 0 {
		charsPerWord = float64(len(plain)) / float64(len(words))
	}
	if len(paragraphs) > 0 {
		wordsPerParagraph = float64(len(words)) / float64(len(paragraphs))
	}
	if len(words) > 0 {
		headingRatio = float64(len(headings)) / float64(len(words))
	}
	return models.Readability{
		CharsPerWord:      charsPerWord,
		WordsPerParagraph: wordsPerParagraph,
		HeadingRatio:      headingRatio,
	}
}

func nonEmptyParagraphs(plain string) []string {
	raw := strings.Split(plain, "\n\n")
	out := raw[:0:0]
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

var mdSyntaxPattern = regexp.MustCompile("(?m)^#{1,6}\\s+|[*_`>]|!\\[[^\\]]*\\]\\([^)]*\\)|\\[([^\\]]*)\\]\\([^)]*\\)")

func stripMarkdown(textMd string) string {
	return mdSyntaxPattern.ReplaceAllString(textMd, "$1")
}

// MediaDensity and LinkDensity report occurrences per 1000 characters,
// Markdown link/image counts unioned with supplied links/attachments.
func MediaDensity(textMd string, attachmentCount int) float64 {
	if len(textMd) == 0 {
		return 0
	}
	count := len(mdImagePattern.FindAllString(textMd, -1)) + attachmentCount
	return float64(count) / float64(len(textMd)) * 1000
}

func LinkDensity(textMd string, links []string) float64 {
	if len(textMd) == 0 {
		return 0
	}
	mdLinks := len(mdLinkPattern.FindAllString(textMd, -1))
	count := mdLinks
	if len(links) > mdLinks {
		count = len(links)
	}
	return float64(count) / float64(len(textMd)) * 1000
}

const (
	shortWordThreshold      = 10
	longWordThreshold       = 10000
	headingRequiredAboveWords = 200
)

// QualityFlags computes the flag subset of §4.1 from word counts,
// heading presence, media/link density, and broken-link patterns.
func QualityFlags(textMd string, headings []string, mediaDensity float64) []string {
	plain := strings.TrimSpace(stripMarkdown(textMd))
	words := strings.Fields(plain)
	wordCount := len(words)

	var flags []string
	if plain == "" {
		flags = append(flags, models.QualityFlagEmptyBody)
		return flags
	}
	if wordCount < shortWordThreshold {
		flags = append(flags, models.QualityFlagTooShort)
	}
	if wordCount > longWordThreshold {
		flags = append(flags, models.QualityFlagTooLong)
	}
	if wordCount > headingRequiredAboveWords && len(headings) == 0 {
		flags = append(flags, models.QualityFlagNoStructure)
	}
	if mediaDensity > 0 && wordCount < shortWordThreshold*2 {
		flags = append(flags, models.QualityFlagImageOnly)
	}
	if brokenLinkEmpty.MatchString(textMd) || brokenLinkHash.MatchString(textMd) {
		flags = append(flags, models.QualityFlagBrokenLinks)
	}
	return flags
}

// QualityScore maps the flag set and readability signal to a
// monotone [0,1] score used for skiplist gating; more flags and
// poorer readability push the score down.
func QualityScore(flags []string, readability models.Readability) float64 {
	score := 1.0
	penalty := map[string]float64{
		models.QualityFlagEmptyBody:    1.0,
		models.QualityFlagTooShort:     0.4,
		models.QualityFlagTooLong:      0.1,
		models.QualityFlagImageOnly:    0.5,
		models.QualityFlagNoStructure:  0.2,
		models.QualityFlagBrokenLinks:  0.15,
	}
	for _, f := range flags {
		score -= penalty[f]
	}
	if readability.CharsPerWord > 12 {
		score -= 0.1
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

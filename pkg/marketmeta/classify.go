package marketmeta

import (
	"strings"

	"tradelens-api/pkg/enrich"
)

// majorCategories maps well-known tag slugs to display categories, in
// priority order: the first slug present in an event's tags wins.
var majorCategories = []struct {
	slug    string
	display string
}{
	{"politics", "Politics"},
	{"elections", "Politics"},
	{"geopolitics", "Politics"},
	{"crypto", "Crypto"},
	{"sports", "Sports"},
	{"business", "Business"},
	{"economy", "Business"},
	{"culture", "Culture"},
	{"entertainment", "Culture"},
	{"science", "Science"},
	{"technology", "Tech"},
	{"tech", "Tech"},
}

// noiseSlugs are bookkeeping tags that never make a useful subcategory.
var noiseSlugs = map[string]struct{}{
	"recurring": {},
	"monthly":   {},
	"daily":     {},
	"weekly":    {},
	"featured":  {},
	"new":       {},
}

// Classify derives the category triple from an event's tag slugs. An empty
// tag list yields the Other fallback.
func Classify(tagSlugs []string) enrich.Category {
	normalized := make([]string, 0, len(tagSlugs))
	present := make(map[string]struct{}, len(tagSlugs))
	for _, slug := range tagSlugs {
		slug = strings.ToLower(strings.TrimSpace(slug))
		if slug == "" {
			continue
		}
		normalized = append(normalized, slug)
		present[slug] = struct{}{}
	}
	if len(normalized) == 0 {
		return enrich.Uncategorized()
	}

	category := enrich.CategoryOther
	for _, major := range majorCategories {
		if _, ok := present[major.slug]; ok {
			category = major.display
			break
		}
	}

	// Subcategory: the first tag, in event order, that is neither a major
	// slug nor noise. When nothing qualifies the category doubles as the
	// subcategory.
	subcategory := category
	for _, slug := range normalized {
		if isMajorSlug(slug) {
			continue
		}
		if _, noise := noiseSlugs[slug]; noise {
			continue
		}
		subcategory = slug
		break
	}

	return enrich.Category{
		Category:    category,
		Subcategory: subcategory,
		Tags:        normalized,
	}
}

func isMajorSlug(slug string) bool {
	for _, major := range majorCategories {
		if major.slug == slug {
			return true
		}
	}
	return false
}

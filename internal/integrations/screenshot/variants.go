// Package screenshot renders card images: a headless-browser capturer for
// the real preview page and a native renderer used when no browser is
// available.
package screenshot

import (
	"fmt"
	"sort"
)

// Variant is one named output size for a rendered card image.
type Variant struct {
	Name   string
	Width  int
	Height int
}

// variants is the canonical size table. Dimensions are exact: downstream
// social networks reject or recrop anything else.
var variants = map[string]Variant{
	"og":                      {"og", 1200, 630},
	"card":                    {"card", 1280, 720},
	"simple":                  {"simple", 1280, 720},
	"banner":                  {"banner", 1500, 500},
	"x_profile_400":           {"x_profile_400", 400, 400},
	"x_header_1500x500":       {"x_header_1500x500", 1500, 500},
	"x_feed_1600x900":         {"x_feed_1600x900", 1600, 900},
	"ig_square_1080":          {"ig_square_1080", 1080, 1080},
	"ig_portrait_1080x1350":   {"ig_portrait_1080x1350", 1080, 1350},
	"ig_landscape_1080x566":   {"ig_landscape_1080x566", 1080, 566},
	"fb_post_1080":            {"fb_post_1080", 1080, 1080},
	"fb_cover_851x315":        {"fb_cover_851x315", 851, 315},
	"linkedin_profile_400":    {"linkedin_profile_400", 400, 400},
	"linkedin_cover_1584x396": {"linkedin_cover_1584x396", 1584, 396},
	"youtube_cover_2560x1440": {"youtube_cover_2560x1440", 2560, 1440},
	"og_1200x630":             {"og_1200x630", 1200, 630},
}

// LookupVariant returns the size table entry for name.
func LookupVariant(name string) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown screenshot variant: %s", name)
	}
	return v, nil
}

// VariantNames returns all known variant names, sorted.
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for n := range variants {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

package screenshot

import "testing"

func TestLookupVariantDimensions(t *testing.T) {
	cases := []struct {
		name          string
		width, height int
	}{
		{"og", 1200, 630},
		{"banner", 1500, 500},
		{"x_header_1500x500", 1500, 500},
		{"ig_portrait_1080x1350", 1080, 1350},
		{"youtube_cover_2560x1440", 2560, 1440},
	}
	for _, c := range cases {
		v, err := LookupVariant(c.name)
		if err != nil {
			t.Errorf("LookupVariant(%s) failed: %v", c.name, err)
			continue
		}
		if v.Width != c.width || v.Height != c.height {
			t.Errorf("%s: expected %dx%d, got %dx%d", c.name, c.width, c.height, v.Width, v.Height)
		}
	}
}

func TestLookupVariantUnknown(t *testing.T) {
	if _, err := LookupVariant("polaroid"); err == nil {
		t.Error("Expected error for unknown variant")
	}
}

func TestVariantNamesComplete(t *testing.T) {
	names := VariantNames()
	if len(names) != 16 {
		t.Errorf("Expected 16 variants, got %d", len(names))
	}
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			t.Errorf("Duplicate variant name %s", n)
		}
		seen[n] = true
	}
}

// internal/sites/registry_test.go
package sites

import (
	"testing"

	"quote-orchestrator/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_FoldsAndFiltersAgainstWhitelist(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "case and whitespace folded",
			input:    []string{"  STAPLES ", "OfficeDepot", "quill"},
			expected: []string{"staples", "officedepot", "quill"},
		},
		{
			name:     "unknown tokens dropped silently",
			input:    []string{"staples", "evil-site.example", "'; DROP TABLE", "amazon"},
			expected: []string{"staples", "amazon"},
		},
		{
			name:     "duplicates keep first position",
			input:    []string{"amazon", "walmart", "AMAZON", "walmart"},
			expected: []string{"amazon", "walmart"},
		},
		{
			name:     "punctuation folds to underscore",
			input:    []string{"amazon business", "ace mart"},
			expected: []string{"amazon_business", "ace_mart"},
		},
		{
			name:     "empty input",
			input:    nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestSearchURL_TemplateSubstitution(t *testing.T) {
	url := SearchURL("quill", "toner cartridge", nil)
	assert.Equal(t, "https://www.quill.com/search?keywords=toner+cartridge", url)
}

func TestSearchURL_OverrideWins(t *testing.T) {
	overrides := map[string]string{"quill": "https://staging.quill.example/find?q={q}"}
	url := SearchURL("quill", "toner", overrides)
	assert.Equal(t, "https://staging.quill.example/find?q=toner", url)
}

func TestSearchURL_UnknownSiteFallsBackToWebSearch(t *testing.T) {
	url := SearchURL("nosuchsite", "toner", nil)
	assert.Contains(t, url, "google.com/search")
	assert.Contains(t, url, "toner")
}

func TestIsJSHeavy(t *testing.T) {
	assert.True(t, IsJSHeavy("walmart"))
	assert.True(t, IsJSHeavy("homedepot"))
	assert.False(t, IsJSHeavy("staples"))
	assert.False(t, IsJSHeavy("nosuchsite"))
}

func TestParseCategory_ClosedSet(t *testing.T) {
	assert.Equal(t, models.CategoryOffice, ParseCategory(" Office "))
	assert.Equal(t, models.CategoryElectronics, ParseCategory("electronics"))
	assert.Equal(t, models.CategoryUnknown, ParseCategory("groceries"))
	assert.Equal(t, models.CategoryUnknown, ParseCategory(""))
}

func TestFallbackPlan_AllKnown(t *testing.T) {
	for _, id := range FallbackPlan() {
		assert.True(t, IsKnown(id), "fallback plan entry %q must be whitelisted", id)
	}
}

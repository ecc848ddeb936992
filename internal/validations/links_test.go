package validations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsURLValid(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com/path?q=1",
		"https://sub.domain.example.com:8443/a/b",
	}
	for _, link := range valid {
		assert.True(t, IsURLValid(link), link)
	}

	invalid := []string{
		"",
		"not a url",
		"ftp://example.com",
		"https://",
		"javascript:alert(1)",
		"https://example.com/" + strings.Repeat("a", 2048),
	}
	for _, link := range invalid {
		assert.False(t, IsURLValid(link), link)
	}
}

func TestExtractHostname(t *testing.T) {
	assert.Equal(t, "example.com", ExtractHostname("https://example.com/page"))
	assert.Equal(t, "example.com:8080", ExtractHostname("http://example.com:8080"))
}

func TestCleanUpText(t *testing.T) {
	assert.Equal(t, "Hello World", CleanUpText("  Hello World  "))
	assert.Equal(t, "Hello World", CleanUpText("Hello\n\tWorld"))
	assert.Equal(t, "Bold title", CleanUpText("<b>Bold</b> title"))
	assert.Equal(t, "", CleanUpText("<script>alert(1)</script>"))
	assert.Equal(t, "Tom & Jerry", CleanUpText("Tom &amp; Jerry"))
	assert.Equal(t, "", CleanUpText("   "))
}

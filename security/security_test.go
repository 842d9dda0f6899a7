package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeStripsMarkup(t *testing.T) {
	svc := NewSecurityService()

	out, err := svc.ValidateAndSanitizeMarketInput(MarketInput{
		Title:       "Will it rain? <script>alert(1)</script>",
		Description: "  Resolves YES on any measurable rainfall.  ",
	})
	require.NoError(t, err)
	assert.NotContains(t, out.Title, "<script>")
	assert.Equal(t, "Resolves YES on any measurable rainfall.", out.Description)
}

func TestSanitizeRejectsMarkupOnlyTitle(t *testing.T) {
	svc := NewSecurityService()

	_, err := svc.ValidateAndSanitizeMarketInput(MarketInput{Title: "<b></b>"})
	assert.Error(t, err)
}

func TestRenderDescriptionMarkdown(t *testing.T) {
	svc := NewSecurityService()

	html := svc.RenderDescription("Some **bold** text")
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestRenderDescriptionSanitizesHTML(t *testing.T) {
	svc := NewSecurityService()

	html := svc.RenderDescription("hello <script>alert(1)</script>")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "hello")
}

func TestRenderDescriptionEmpty(t *testing.T) {
	svc := NewSecurityService()
	assert.Empty(t, svc.RenderDescription("   "))
}

// Package security sanitizes user-supplied market content before it is
// stored or served. Titles are stripped to plain text; descriptions are
// markdown, rendered to HTML and sanitized with a UGC policy.
package security

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

type SecurityService struct {
	strict   *bluemonday.Policy
	ugc      *bluemonday.Policy
	markdown goldmark.Markdown
}

func NewSecurityService() *SecurityService {
	return &SecurityService{
		strict:   bluemonday.StrictPolicy(),
		ugc:      bluemonday.UGCPolicy(),
		markdown: goldmark.New(),
	}
}

// MarketInput is the mutable free-text content of a market.
type MarketInput struct {
	Title       string
	Description string
}

// ValidateAndSanitizeMarketInput strips markup from the title and checks the
// result is still non-empty (a title made only of markup is rejected).
func (s *SecurityService) ValidateAndSanitizeMarketInput(input MarketInput) (MarketInput, error) {
	title := strings.TrimSpace(s.strict.Sanitize(input.Title))
	if title == "" {
		return MarketInput{}, fmt.Errorf("question must contain text")
	}
	return MarketInput{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
	}, nil
}

// RenderDescription renders the stored markdown description to sanitized
// HTML for the wire. Returns an empty string for an empty description.
func (s *SecurityService) RenderDescription(description string) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(description), &buf); err != nil {
		// Fall back to the plain-text form rather than serving raw input.
		return s.strict.Sanitize(description)
	}
	return s.ugc.Sanitize(buf.String())
}

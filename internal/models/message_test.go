package models_test

import (
	"strings"
	"testing"

	"github.com/Tanmay0215/legal-ai/internal/models"
)

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "plain text",
			content: "The notice period is 30 days.",
			want:    "<p>The notice period is 30 days.</p>",
		},
		{
			name:    "emphasis",
			content: "This clause is **binding**.",
			want:    "<strong>binding</strong>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.RenderHTML(tt.content)
			if err != nil {
				t.Fatalf("RenderHTML() error = %v", err)
			}
			if !strings.Contains(string(got), tt.want) {
				t.Errorf("RenderHTML() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestRenderHTMLOmitsRawHTML(t *testing.T) {
	got, err := models.RenderHTML("<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if strings.Contains(string(got), "<script>") {
		t.Errorf("RenderHTML() = %q, raw HTML should not pass through", got)
	}
}

package draftlib

import (
	"reflect"
	"testing"
)

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{
			name:   "img src",
			markup: `<p>hi <img src="https://cdn/a.jpg"> there</p>`,
			want:   []string{"https://cdn/a.jpg"},
		},
		{
			name:   "multiple images in document order",
			markup: `<img src="https://cdn/1.png"><div><img src="https://cdn/2.png"/></div>`,
			want:   []string{"https://cdn/1.png", "https://cdn/2.png"},
		},
		{
			name:   "srcset candidates",
			markup: `<img srcset="https://cdn/s.jpg 1x, https://cdn/l.jpg 2x" src="https://cdn/s.jpg">`,
			want:   []string{"https://cdn/s.jpg", "https://cdn/l.jpg", "https://cdn/s.jpg"},
		},
		{
			name:   "source element",
			markup: `<picture><source src="https://cdn/v.webp"></picture>`,
			want:   []string{"https://cdn/v.webp"},
		},
		{
			name:   "data and fragment URIs skipped",
			markup: `<img src="data:image/png;base64,AAAA"><img src="#local">`,
			want:   nil,
		},
		{
			name:   "anchor hrefs are not resources",
			markup: `<a href="https://example.com">link</a>`,
			want:   nil,
		},
		{
			name:   "malformed markup does not fail",
			markup: `<img src="https://cdn/x.gif"<p><div`,
			want:   []string{"https://cdn/x.gif"},
		},
		{
			name:   "empty markup",
			markup: "",
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractURLs(tt.markup)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExtractURLs() = %v, want %v", got, tt.want)
			}
		})
	}
}

package lectureinfo

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core/material"
)

const maxSummaryChars = 300

var ErrNotHTML = errors.New("not an HTML document")

// HTMLExtractor reads the title and description of HTML lecture pages.
type HTMLExtractor struct{}

var _ material.InfoExtractor = HTMLExtractor{}

func (HTMLExtractor) ExtractLectureInfo(_ context.Context, name, mimeType string, content []byte) (material.LectureInfo, error) {
	if !isHTML(name, mimeType) {
		return material.LectureInfo{}, ErrNotHTML
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return material.LectureInfo{}, errors.Wrap(err, "parsing HTML")
	}

	title := collapse(doc.Find("title").First().Text())
	if title == "" {
		title = collapse(doc.Find("h1").First().Text())
	}

	summary := collapse(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if summary == "" {
		doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			summary = collapse(s.Text())
			return summary == ""
		})
	}

	return material.LectureInfo{Title: title, Summary: truncate(summary, maxSummaryChars), Source: material.SourceHTML}, nil
}

func isHTML(name, mimeType string) bool {
	if mimeType == "text/html" || mimeType == "application/xhtml+xml" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

package builtin

import (
	"bytes"
	"context"
	"strings"

	"github.com/jingkaihe/skillctl/pkg/collab"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// FetchInput is the input of fetch_markdown.
type FetchInput struct {
	URL string `mapstructure:"url" json:"url" jsonschema:"required,description=HTTP(S) URL to fetch"`
}

// FetchOutput is the output of fetch_markdown.
type FetchOutput struct {
	URL         string         `mapstructure:"url"`
	ContentType string         `mapstructure:"content_type"`
	Markdown    string         `mapstructure:"markdown"`
	Metadata    map[string]any `mapstructure:"metadata"`
}

// MarkdownFetcher retrieves documents through a collab.Fetcher.
type MarkdownFetcher struct {
	Fetcher collab.Fetcher
}

// Fetch retrieves the URL and extracts YAML frontmatter when present.
func (f *MarkdownFetcher) Fetch(ctx context.Context, in FetchInput) (FetchOutput, error) {
	if strings.TrimSpace(in.URL) == "" {
		return FetchOutput{}, errors.New("url is required")
	}

	doc, err := f.Fetcher.Fetch(ctx, in.URL)
	if err != nil {
		return FetchOutput{}, err
	}

	metadata, err := frontmatter(doc.Markdown)
	if err != nil {
		return FetchOutput{}, err
	}

	return FetchOutput{
		URL:         doc.URL,
		ContentType: doc.ContentType,
		Markdown:    doc.Markdown,
		Metadata:    metadata,
	}, nil
}

// frontmatter parses YAML frontmatter from markdown content.
func frontmatter(content string) (map[string]any, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert([]byte(content), &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metadata := meta.Get(pctx)
	if metadata == nil {
		metadata = map[string]any{}
	}
	return metadata, nil
}

package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var ErrGeneratorNotConfigured = errors.New("content: generator not configured")

// Generator is the narrow interface onto the generative-content
// collaborator.
type Generator interface {
	GenerateArticle(ctx context.Context, title, description string) (string, error)
}

type Service struct {
	repo  Repository
	gen   Generator
	clock func() time.Time
}

// NewService builds the article service. gen may be nil; generation then
// fails with ErrGeneratorNotConfigured while reads keep working.
func NewService(repo Repository, gen Generator) *Service {
	return &Service{repo: repo, gen: gen, clock: time.Now}
}

// WithClock overrides the service clock. Test use only.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases, collapses non-alphanumerics to dashes, and caps length.
func Slugify(title string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 100 {
		slug = slug[:100]
	}
	return slug
}

// Generate produces and stores one article.
func (s *Service) Generate(ctx context.Context, title, description string) (Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Post{}, errors.New("content: title required")
	}
	if s.gen == nil {
		return Post{}, ErrGeneratorNotConfigured
	}

	body, err := s.gen.GenerateArticle(ctx, title, description)
	if err != nil {
		return Post{}, fmt.Errorf("generate %q: %w", title, err)
	}

	now := s.clock().UTC()
	desc := description
	if desc == "" {
		desc = title
	}
	if len(desc) > 500 {
		desc = desc[:500]
	}

	post := Post{
		Title:       title,
		Slug:        Slugify(title),
		Content:     body,
		Description: desc,
		CreatedAt:   now,
	}

	stored, err := s.repo.Insert(ctx, post)
	if errors.Is(err, ErrDuplicateSlug) {
		// Same title generated twice; disambiguate with a timestamp suffix.
		post.Slug = fmt.Sprintf("%s-%d", post.Slug, now.Unix())
		stored, err = s.repo.Insert(ctx, post)
	}
	if err != nil {
		return Post{}, err
	}
	return stored, nil
}

// BulkItem is one parsed line of a bulk-generation prompt.
type BulkItem struct {
	Title       string
	Description string
}

// BulkItemResult reports one item's outcome; the batch succeeds regardless.
type BulkItemResult struct {
	Title string `json:"title"`
	Slug  string `json:"slug,omitempty"`
	Error string `json:"error,omitempty"`
}

// ParseBulkPrompt splits a prompt into items, one per line, with an optional
// "title | description" separator. Blank lines and #-comments are skipped.
func ParseBulkPrompt(prompt string) []BulkItem {
	var items []BulkItem
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		item := BulkItem{Title: line}
		if idx := strings.Index(line, "|"); idx >= 0 {
			item.Title = strings.TrimSpace(line[:idx])
			item.Description = strings.TrimSpace(line[idx+1:])
		}
		if item.Title != "" {
			items = append(items, item)
		}
	}
	return items
}

// GenerateBulk generates one article per prompt line. Individual failures
// are collected per item and never abort the rest.
func (s *Service) GenerateBulk(ctx context.Context, prompt string) ([]BulkItemResult, error) {
	if s.gen == nil {
		return nil, ErrGeneratorNotConfigured
	}
	items := ParseBulkPrompt(prompt)
	if len(items) == 0 {
		return nil, errors.New("content: no articles found in prompt")
	}

	results := make([]BulkItemResult, 0, len(items))
	for _, item := range items {
		post, err := s.Generate(ctx, item.Title, item.Description)
		if err != nil {
			results = append(results, BulkItemResult{Title: item.Title, Error: err.Error()})
			continue
		}
		results = append(results, BulkItemResult{Title: item.Title, Slug: post.Slug})
	}
	return results, nil
}

// List returns all posts, newest first.
func (s *Service) List(ctx context.Context) ([]Post, error) {
	posts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

// View fetches a post by slug and counts the read.
func (s *Service) View(ctx context.Context, slug string) (Post, error) {
	return s.repo.IncrementViews(ctx, slug)
}

package content

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrPostNotFound  = errors.New("content: post not found")
	ErrDuplicateSlug = errors.New("content: slug already exists")
)

// Repository is the persistence contract for generated posts.
type Repository interface {
	ListAll(ctx context.Context) ([]Post, error)
	Insert(ctx context.Context, p Post) (Post, error)
	FindBySlug(ctx context.Context, slug string) (Post, error)
	// IncrementViews bumps the view counter and returns the updated post.
	IncrementViews(ctx context.Context, slug string) (Post, error)
}

// MemoryRepo is an in-memory post store.
type MemoryRepo struct {
	mu    sync.Mutex
	posts []Post
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListAll(ctx context.Context) ([]Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Post, len(r.posts))
	copy(out, r.posts)
	return out, nil
}

func (r *MemoryRepo) Insert(ctx context.Context, p Post) (Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxID int64
	for _, existing := range r.posts {
		if existing.Slug == p.Slug {
			return Post{}, ErrDuplicateSlug
		}
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	p.ID = maxID + 1
	r.posts = append(r.posts, p)
	return p, nil
}

func (r *MemoryRepo) FindBySlug(ctx context.Context, slug string) (Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrPostNotFound
}

func (r *MemoryRepo) IncrementViews(ctx context.Context, slug string) (Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.posts {
		if r.posts[i].Slug == slug {
			r.posts[i].Views++
			return r.posts[i], nil
		}
	}
	return Post{}, ErrPostNotFound
}

package folio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeAssets is an in-memory AssetStore for tests.
type fakeAssets struct {
	mu      sync.Mutex
	objects map[string][]byte
	next    int
	failing bool
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{objects: make(map[string][]byte)}
}

func (f *fakeAssets) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return "", fmt.Errorf("%w: fake backend down", ErrAssetUnavailable)
	}
	f.next++
	handle := fmt.Sprintf("asset-%d", f.next)
	f.objects[handle] = data
	return handle, nil
}

func (f *fakeAssets) Resolve(ctx context.Context, handle string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return "", fmt.Errorf("%w: fake backend down", ErrAssetUnavailable)
	}
	if _, ok := f.objects[handle]; !ok {
		return "", nil
	}
	return "https://assets.test/" + handle, nil
}

func setupTestStore(t *testing.T) (*Store, *fakeAssets) {
	t.Helper()
	assets := newFakeAssets()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"), assets)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, assets
}

// advanceClock replaces the store clock with one that returns a strictly
// later instant on every call, so timestamp ordering is deterministic.
func advanceClock(s *Store) {
	base := time.Now()
	var n int64
	var mu sync.Mutex
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Millisecond)
	}
}

func TestCreateDraft(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, PostDraft{Title: "Hello", Slug: "hello", Content: "body", Excerpt: "excerpt"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if id == "" {
		t.Fatal("CreatePost returned empty id")
	}

	got, err := s.GetBySlug(ctx, "hello")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetBySlug returned nil for existing slug")
	}
	if got.ID != id {
		t.Errorf("ID = %q, want %q", got.ID, id)
	}
	if got.PublishedAt != nil {
		t.Error("draft should have no PublishedAt")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("CreatedAt and UpdatedAt must be stamped at creation")
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("CreatedAt %v != UpdatedAt %v at creation", got.CreatedAt, got.UpdatedAt)
	}
	if got.Link != "/blog/hello" {
		t.Errorf("Link = %q, want %q", got.Link, "/blog/hello")
	}
}

func TestCreatePublished(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := s.CreatePost(ctx, PostDraft{Title: "Live", Slug: "live", Publish: true})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	got, err := s.GetBySlug(ctx, "live")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got.PublishedAt == nil {
		t.Fatal("publish=true at creation must stamp PublishedAt")
	}
	if !got.PublishedAt.Equal(got.CreatedAt) {
		t.Errorf("PublishedAt %v != CreatedAt %v for publish-at-create", got.PublishedAt, got.CreatedAt)
	}
}

func TestGetBySlugUnknown(t *testing.T) {
	s, _ := setupTestStore(t)

	got, err := s.GetBySlug(context.Background(), "never-created")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got != nil {
		t.Errorf("GetBySlug on unknown slug = %+v, want nil", got)
	}
}

func TestDuplicateSlugOnCreate(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreatePost(ctx, PostDraft{Title: "One", Slug: "taken"}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	_, err := s.CreatePost(ctx, PostDraft{Title: "Two", Slug: "taken"})
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}
}

func TestDuplicateSlugOnUpdate(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreatePost(ctx, PostDraft{Title: "One", Slug: "one"}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	id, err := s.CreatePost(ctx, PostDraft{Title: "Two", Slug: "two"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	err = s.UpdatePost(ctx, id, PostDraft{Title: "Two", Slug: "one"})
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}

	// Keeping its own slug is not a conflict.
	if err := s.UpdatePost(ctx, id, PostDraft{Title: "Two renamed", Slug: "two"}); err != nil {
		t.Errorf("update keeping own slug should succeed, got %v", err)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	s, _ := setupTestStore(t)

	err := s.UpdatePost(context.Background(), "no-such-id", PostDraft{Title: "x", Slug: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPublishIsIdempotent(t *testing.T) {
	s, _ := setupTestStore(t)
	advanceClock(s)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, PostDraft{Title: "P", Slug: "p", Publish: true})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	first, err := s.GetBySlug(ctx, "p")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}

	// Republishing on every edit must not bump the visible publish date.
	if err := s.UpdatePost(ctx, id, PostDraft{Title: "P edited", Slug: "p", Publish: true}); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if err := s.UpdatePost(ctx, id, PostDraft{Title: "P edited again", Slug: "p", Publish: true}); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	got, err := s.GetBySlug(ctx, "p")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got.PublishedAt == nil {
		t.Fatal("post should still be published")
	}
	if !got.PublishedAt.Equal(*first.PublishedAt) {
		t.Errorf("PublishedAt changed on republish: %v -> %v", first.PublishedAt, got.PublishedAt)
	}
	if got.Title != "P edited again" {
		t.Errorf("Title = %q, want %q", got.Title, "P edited again")
	}
}

func TestUnpublishClearsTimestamp(t *testing.T) {
	s, _ := setupTestStore(t)
	advanceClock(s)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, PostDraft{Title: "U", Slug: "u", Publish: true})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if err := s.UpdatePost(ctx, id, PostDraft{Title: "U", Slug: "u", Publish: false}); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	got, err := s.GetBySlug(ctx, "u")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got.PublishedAt != nil {
		t.Errorf("unpublish must clear PublishedAt, got %v", got.PublishedAt)
	}
}

func TestRepublishAfterUnpublishIsFresh(t *testing.T) {
	s, _ := setupTestStore(t)
	advanceClock(s)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, PostDraft{Title: "F", Slug: "f", Publish: true})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	first, _ := s.GetBySlug(ctx, "f")

	if err := s.UpdatePost(ctx, id, PostDraft{Title: "F", Slug: "f", Publish: false}); err != nil {
		t.Fatalf("unpublish failed: %v", err)
	}
	if err := s.UpdatePost(ctx, id, PostDraft{Title: "F", Slug: "f", Publish: true}); err != nil {
		t.Fatalf("republish failed: %v", err)
	}

	got, _ := s.GetBySlug(ctx, "f")
	if got.PublishedAt == nil {
		t.Fatal("post should be published again")
	}
	if !got.PublishedAt.After(*first.PublishedAt) {
		t.Errorf("republish after unpublish must stamp a fresh PublishedAt: first %v, second %v",
			first.PublishedAt, got.PublishedAt)
	}
}

func TestUpdatedAtIncreases(t *testing.T) {
	s, _ := setupTestStore(t)
	advanceClock(s)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, PostDraft{Title: "T", Slug: "t"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	before, _ := s.GetBySlug(ctx, "t")

	// A no-op content change still counts as an update.
	if err := s.UpdatePost(ctx, id, PostDraft{Title: "T", Slug: "t"}); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	after, _ := s.GetBySlug(ctx, "t")

	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("UpdatedAt must increase on every update: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("CreatedAt must never change: %v -> %v", before.CreatedAt, after.CreatedAt)
	}
}

func TestListPublishedExcludesDrafts(t *testing.T) {
	s, _ := setupTestStore(t)
	advanceClock(s)
	ctx := context.Background()

	if _, err := s.CreatePost(ctx, PostDraft{Title: "Draft", Slug: "draft"}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if _, err := s.CreatePost(ctx, PostDraft{Title: "Live", Slug: "live", Publish: true}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	published, err := s.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	for _, p := range published {
		if p.PublishedAt == nil {
			t.Errorf("ListPublished returned draft %q", p.Slug)
		}
	}
	if len(published) != 1 {
		t.Errorf("ListPublished count = %d, want 1", len(published))
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAll count = %d, want 2", len(all))
	}
	if len(all) < len(published) {
		t.Error("ListAll must never be shorter than ListPublished")
	}
}

func TestListOrdering(t *testing.T) {
	s, _ := setupTestStore(t)
	advanceClock(s)
	ctx := context.Background()

	// Created in order a, b, c; published in order c, a.
	if _, err := s.CreatePost(ctx, PostDraft{Title: "A", Slug: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreatePost(ctx, PostDraft{Title: "B", Slug: "b"}); err != nil {
		t.Fatal(err)
	}
	idC, err := s.CreatePost(ctx, PostDraft{Title: "C", Slug: "c"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdatePost(ctx, idC, PostDraft{Title: "C", Slug: "c", Publish: true}); err != nil {
		t.Fatal(err)
	}
	a, _ := s.GetBySlug(ctx, "a")
	if err := s.UpdatePost(ctx, a.ID, PostDraft{Title: "A", Slug: "a", Publish: true}); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if all[0].Slug != "c" || all[1].Slug != "b" || all[2].Slug != "a" {
		t.Errorf("ListAll order = %s,%s,%s, want c,b,a (creation desc)", all[0].Slug, all[1].Slug, all[2].Slug)
	}

	published, err := s.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	if published[0].Slug != "a" || published[1].Slug != "c" {
		t.Errorf("ListPublished order = %s,%s, want a,c (publish desc)", published[0].Slug, published[1].Slug)
	}
}

func TestConcurrentUpdatesLastWriteWins(t *testing.T) {
	s, _ := setupTestStore(t)
	advanceClock(s)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, PostDraft{Title: "Base", Slug: "base", Content: "base", Excerpt: "base"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	draftA := PostDraft{Title: "Writer A", Slug: "base", Content: "content A", Excerpt: "excerpt A", Publish: true}
	draftB := PostDraft{Title: "Writer B", Slug: "base", Content: "content B", Excerpt: "excerpt B"}

	// Two sessions racing on the same post: both writes succeed, the
	// later one wins wholesale, and no field mix of the two survives.
	var wg sync.WaitGroup
	for _, draft := range []PostDraft{draftA, draftB} {
		wg.Add(1)
		go func(d PostDraft) {
			defer wg.Done()
			if err := s.UpdatePost(ctx, id, d); err != nil {
				t.Errorf("UpdatePost failed: %v", err)
			}
		}(draft)
	}
	wg.Wait()

	got, err := s.GetBySlug(ctx, "base")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	switch got.Title {
	case "Writer A":
		if got.Content != "content A" || got.Excerpt != "excerpt A" || got.PublishedAt == nil {
			t.Errorf("row mixes fields from both writers: %+v", got)
		}
	case "Writer B":
		if got.Content != "content B" || got.Excerpt != "excerpt B" || got.PublishedAt != nil {
			t.Errorf("row mixes fields from both writers: %+v", got)
		}
	default:
		t.Errorf("Title = %q, want one writer's value", got.Title)
	}

	// Deterministic ordering: a later write replaces an earlier one.
	if err := s.UpdatePost(ctx, id, draftA); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if err := s.UpdatePost(ctx, id, draftB); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	got, _ = s.GetBySlug(ctx, "base")
	if got.Title != "Writer B" || got.Content != "content B" || got.PublishedAt != nil {
		t.Errorf("later write must win wholesale, got %+v", got)
	}
}

func TestDeletePost(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, PostDraft{Title: "D", Slug: "d", Publish: true})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if err := s.DeletePost(ctx, id); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	got, err := s.GetBySlug(ctx, "d")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got != nil {
		t.Error("post should be gone after delete")
	}

	// Deleting an unknown identity errors, symmetric with update.
	if err := s.DeletePost(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCoverEnrichment(t *testing.T) {
	s, assets := setupTestStore(t)
	ctx := context.Background()

	handle, err := assets.Store(ctx, []byte{1, 2, 3}, "image/jpeg")
	if err != nil {
		t.Fatalf("asset store failed: %v", err)
	}
	if _, err := s.CreatePost(ctx, PostDraft{Title: "Cover", Slug: "cover", CoverImage: handle, Publish: true}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	got, err := s.GetBySlug(ctx, "cover")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got.CoverImage != handle {
		t.Errorf("CoverImage = %q, want %q", got.CoverImage, handle)
	}
	if got.CoverImageURL != "https://assets.test/"+handle {
		t.Errorf("CoverImageURL = %q, want resolved URL", got.CoverImageURL)
	}

	published, err := s.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	if published[0].CoverImageURL == "" {
		t.Error("listing must carry resolved cover URLs")
	}
}

func TestCoverResolutionDegrades(t *testing.T) {
	s, assets := setupTestStore(t)
	ctx := context.Background()

	handle, _ := assets.Store(ctx, []byte{1}, "image/png")
	if _, err := s.CreatePost(ctx, PostDraft{Title: "Deg", Slug: "deg", CoverImage: handle, Publish: true}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	// A failing backend must degrade to an empty URL, not fail the read.
	assets.failing = true
	got, err := s.GetBySlug(ctx, "deg")
	if err != nil {
		t.Fatalf("read must not fail on asset backend outage: %v", err)
	}
	if got.CoverImageURL != "" {
		t.Errorf("CoverImageURL = %q, want empty on resolution failure", got.CoverImageURL)
	}

	published, err := s.ListPublished(ctx)
	if err != nil {
		t.Fatalf("listing must not fail on asset backend outage: %v", err)
	}
	if len(published) != 1 {
		t.Errorf("ListPublished count = %d, want 1", len(published))
	}
}

func TestNoCoverMeansNoURL(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreatePost(ctx, PostDraft{Title: "Plain", Slug: "plain", Publish: true}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	got, _ := s.GetBySlug(ctx, "plain")
	if got.CoverImage != "" || got.CoverImageURL != "" {
		t.Errorf("post without cover must have empty handle and URL, got %q/%q", got.CoverImage, got.CoverImageURL)
	}
}

func TestLifecycleEndToEnd(t *testing.T) {
	s, _ := setupTestStore(t)
	advanceClock(s)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, PostDraft{Title: "Hello", Slug: "hello", Content: "body", Excerpt: "excerpt"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	all, _ := s.ListAll(ctx)
	if len(all) != 1 || all[0].PublishedAt != nil {
		t.Fatalf("ListAll should contain the draft with nil PublishedAt, got %+v", all)
	}
	published, _ := s.ListPublished(ctx)
	if len(published) != 0 {
		t.Fatalf("ListPublished should not contain the draft")
	}

	if err := s.UpdatePost(ctx, id, PostDraft{Title: "Hello", Slug: "hello", Content: "body", Excerpt: "excerpt", Publish: true}); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	published, _ = s.ListPublished(ctx)
	if len(published) != 1 || published[0].PublishedAt == nil {
		t.Fatalf("ListPublished should now contain the post with PublishedAt set")
	}

	if err := s.DeletePost(ctx, id); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	all, _ = s.ListAll(ctx)
	published, _ = s.ListPublished(ctx)
	if len(all) != 0 || len(published) != 0 {
		t.Error("both lists must be empty after delete")
	}
	got, _ := s.GetBySlug(ctx, "hello")
	if got != nil {
		t.Error("GetBySlug must return nil after delete")
	}
}

package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/ourcity/ourcity-cli/storage"
	"github.com/ourcity/ourcity-cli/storage/storagetest"
)

func TestMemoryRepository(t *testing.T) {
	storagetest.Run(t, NewRepository())
}

func TestMemoryRepository_CreatePostCopies(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	p := &storage.Post{ID: "p1", Title: "before"}
	if err := repo.CreatePost(ctx, p); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	p.Title = "after"

	got, err := repo.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "before" {
		t.Errorf("stored post changed through caller pointer: %q", got.Title)
	}
}

func TestMemoryRepository_Concurrency(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.CreatePost(ctx, &storage.Post{ID: string(rune('a' + i%26)), Title: "t"})
			_, _ = repo.ListPosts(ctx, "", 10)
		}(i)
	}
	wg.Wait()

	posts, err := repo.ListPosts(ctx, "", 100)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 26 {
		t.Errorf("expected 26 distinct posts, got %d", len(posts))
	}
}

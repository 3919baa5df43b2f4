package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MingruiWang2017/albumy/internal/store"
)

func TestCreateAndGetPhoto(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "greyli")

	p := makeTestPhoto("photo-1", "user-1")
	p.Description = "sunset over the bay"
	p.Blurhash = "LKO2?U%2Tw=w]~RBVZRi};RPxuwH"
	if err := s.CreatePhoto(ctx, p); err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}

	got, err := s.GetPhoto(ctx, "photo-1")
	if err != nil {
		t.Fatalf("GetPhoto: %v", err)
	}
	if got.Description != "sunset over the bay" {
		t.Errorf("Description: got %q", got.Description)
	}
	if got.Blurhash != p.Blurhash {
		t.Errorf("Blurhash: got %q", got.Blurhash)
	}
	if !got.CanComment {
		t.Error("CanComment should default true")
	}
	if got.Flag != 0 {
		t.Errorf("Flag: got %d, want 0", got.Flag)
	}
}

func TestPhotoForeignKeyEnforced(t *testing.T) {
	s := newTestStore(t)

	p := makeTestPhoto("photo-1", "user-missing")
	if err := s.CreatePhoto(context.Background(), p); err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestListPhotosNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "greyli")

	base := time.Now()
	for i, id := range []string{"photo-1", "photo-2", "photo-3"} {
		p := makeTestPhoto(id, "user-1")
		p.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.CreatePhoto(ctx, p); err != nil {
			t.Fatalf("CreatePhoto: %v", err)
		}
	}

	photos, total, err := s.ListPhotos(ctx, store.PaginationParams{Page: 1, PerPage: 12})
	if err != nil {
		t.Fatalf("ListPhotos: %v", err)
	}
	if total != 3 {
		t.Errorf("total: got %d", total)
	}
	if photos[0].ID != "photo-3" || photos[2].ID != "photo-1" {
		t.Errorf("order: got %s..%s, want photo-3..photo-1", photos[0].ID, photos[2].ID)
	}
}

func TestListFeedPhotos(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "viewer")
	mustCreateUser(t, s, "user-2", "followed")
	mustCreateUser(t, s, "user-3", "stranger")

	// Self-follow puts the viewer's own photos in their feed.
	if err := s.CreateFollow(ctx, "user-1", "user-1"); err != nil {
		t.Fatalf("CreateFollow self: %v", err)
	}
	if err := s.CreateFollow(ctx, "user-1", "user-2"); err != nil {
		t.Fatalf("CreateFollow: %v", err)
	}

	mustCreatePhoto(t, s, "photo-own", "user-1")
	mustCreatePhoto(t, s, "photo-followed", "user-2")
	mustCreatePhoto(t, s, "photo-stranger", "user-3")

	photos, total, err := s.ListFeedPhotos(ctx, "user-1", store.PaginationParams{Page: 1, PerPage: 12})
	if err != nil {
		t.Fatalf("ListFeedPhotos: %v", err)
	}
	if total != 2 {
		t.Errorf("total: got %d, want 2", total)
	}
	seen := map[string]bool{}
	for _, p := range photos {
		seen[p.ID] = true
	}
	if !seen["photo-own"] || !seen["photo-followed"] || seen["photo-stranger"] {
		t.Errorf("feed photos: got %v", seen)
	}
}

func TestReportPhoto(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "greyli")
	mustCreatePhoto(t, s, "photo-1", "user-1")

	if err := s.ReportPhoto(ctx, "photo-1"); err != nil {
		t.Fatalf("ReportPhoto: %v", err)
	}
	if err := s.ReportPhoto(ctx, "photo-1"); err != nil {
		t.Fatalf("ReportPhoto again: %v", err)
	}

	got, err := s.GetPhoto(ctx, "photo-1")
	if err != nil {
		t.Fatalf("GetPhoto: %v", err)
	}
	if got.Flag != 2 {
		t.Errorf("Flag: got %d, want 2", got.Flag)
	}

	flagged, total, err := s.ListFlaggedPhotos(ctx, store.PaginationParams{Page: 1, PerPage: 20})
	if err != nil {
		t.Fatalf("ListFlaggedPhotos: %v", err)
	}
	if total != 1 || len(flagged) != 1 {
		t.Errorf("flagged: got total=%d len=%d", total, len(flagged))
	}
}

func TestDeletePhotoCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "greyli")
	mustCreateUser(t, s, "user-2", "visitor")
	mustCreatePhoto(t, s, "photo-1", "user-1")

	if err := s.CreateCollect(ctx, "user-2", "photo-1"); err != nil {
		t.Fatalf("CreateCollect: %v", err)
	}

	if err := s.DeletePhoto(ctx, "photo-1"); err != nil {
		t.Fatalf("DeletePhoto: %v", err)
	}

	if _, err := s.GetPhoto(ctx, "photo-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	collecting, err := s.IsCollecting(ctx, "user-2", "photo-1")
	if err != nil {
		t.Fatalf("IsCollecting: %v", err)
	}
	if collecting {
		t.Error("collect edge should cascade")
	}
}

func TestPhotoNeighbors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "greyli")

	base := time.Now()
	for i, id := range []string{"photo-a", "photo-b", "photo-c"} {
		p := makeTestPhoto(id, "user-1")
		p.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.CreatePhoto(ctx, p); err != nil {
			t.Fatalf("CreatePhoto: %v", err)
		}
	}

	mid, err := s.GetPhoto(ctx, "photo-b")
	if err != nil {
		t.Fatalf("GetPhoto: %v", err)
	}

	prev, next, err := s.PhotoNeighbors(ctx, mid)
	if err != nil {
		t.Fatalf("PhotoNeighbors: %v", err)
	}
	if prev != "photo-c" {
		t.Errorf("prev: got %q, want photo-c", prev)
	}
	if next != "photo-a" {
		t.Errorf("next: got %q, want photo-a", next)
	}

	// Edges of the timeline have no neighbor on one side.
	newest, err := s.GetPhoto(ctx, "photo-c")
	if err != nil {
		t.Fatalf("GetPhoto: %v", err)
	}
	prev, next, err = s.PhotoNeighbors(ctx, newest)
	if err != nil {
		t.Fatalf("PhotoNeighbors: %v", err)
	}
	if prev != "" {
		t.Errorf("prev of newest: got %q, want empty", prev)
	}
	if next != "photo-b" {
		t.Errorf("next of newest: got %q", next)
	}
}

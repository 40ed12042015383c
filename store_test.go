package ytdash

import (
	"context"
	"testing"
)

func storedComments() []Comment {
	return []Comment{
		{CommentID: "c1", VideoID: "v1", Text: "first", Author: "alice", LikeCount: 3, ReplyCount: 1, CreatedAt: timeRef("2024-01-01T10:00:00Z")},
		{CommentID: "c2", VideoID: "v1", Text: "second", Author: "bob", LikeCount: 10, CreatedAt: timeRef("2024-01-02T10:00:00Z")},
		{CommentID: "c3", VideoID: "v1", Text: "undated", Author: "carol"},
	}
}

func TestStoreUpsertAndList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	n, err := store.UpsertComments(ctx, storedComments())
	if err != nil {
		t.Fatalf("UpsertComments: %v", err)
	}
	if n != 3 {
		t.Fatalf("UpsertComments = %d; want 3", n)
	}

	comments, err := store.ListComments(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	var ids []string
	for _, c := range comments {
		ids = append(ids, c.CommentID)
	}
	if len(ids) != 3 || ids[0] != "c2" || ids[1] != "c1" || ids[2] != "c3" {
		t.Fatalf("order = %v; want [c2 c1 c3]", ids)
	}
	if comments[0].LikeCount != 10 || comments[0].Author != "bob" {
		t.Errorf("first comment = %+v", comments[0])
	}
	if comments[0].CreatedAt == nil || !comments[0].CreatedAt.Equal(*timeRef("2024-01-02T10:00:00Z")) {
		t.Errorf("CreatedAt = %v; want 2024-01-02T10:00:00Z", comments[0].CreatedAt)
	}
	if comments[2].CreatedAt != nil {
		t.Errorf("undated CreatedAt = %v; want nil", comments[2].CreatedAt)
	}

	page, err := store.ListComments(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(page) != 1 || page[0].CommentID != "c1" {
		t.Errorf("second page = %+v; want c1", page)
	}
}

func TestStoreKeepsReplyOnReimport(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.UpsertComments(ctx, storedComments()); err != nil {
		t.Fatalf("UpsertComments: %v", err)
	}
	if err := store.SetAIReply(ctx, "c1", "thanks!"); err != nil {
		t.Fatalf("SetAIReply: %v", err)
	}

	updated := storedComments()[:1]
	updated[0].LikeCount = 99
	if _, err := store.UpsertComments(ctx, updated); err != nil {
		t.Fatalf("UpsertComments: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d; want 3", count)
	}

	pending, err := store.CommentsWithoutReply(ctx, 10)
	if err != nil {
		t.Fatalf("CommentsWithoutReply: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("CommentsWithoutReply = %d comments; want 2", len(pending))
	}

	comments, err := store.ListComments(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	for _, c := range comments {
		if c.CommentID != "c1" {
			continue
		}
		if c.LikeCount != 99 {
			t.Errorf("LikeCount = %d; want 99", c.LikeCount)
		}
		if c.AIReply == nil || *c.AIReply != "thanks!" {
			t.Errorf("AIReply = %v; want thanks!", c.AIReply)
		}
	}
}

func TestStoreSetAIReplyUnknown(t *testing.T) {
	store := openTestStore(t)
	if err := store.SetAIReply(context.Background(), "missing", "hi"); err == nil {
		t.Fatal("SetAIReply of unknown comment expected error")
	}
}

func TestStoreFingerprint(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, ok, err := store.LatestCreatedAt(ctx); err != nil || ok {
		t.Fatalf("LatestCreatedAt on empty store = %v, %v; want false, nil", ok, err)
	}
	empty, err := store.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	if _, err := store.UpsertComments(ctx, storedComments()[:1]); err != nil {
		t.Fatalf("UpsertComments: %v", err)
	}
	one, err := store.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if one == empty {
		t.Error("fingerprint did not change after insert")
	}
	again, err := store.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if again != one {
		t.Error("fingerprint changed without writes")
	}

	latest, ok, err := store.LatestCreatedAt(ctx)
	if err != nil || !ok {
		t.Fatalf("LatestCreatedAt = %v, %v", ok, err)
	}
	if !latest.Equal(*timeRef("2024-01-01T10:00:00Z")) {
		t.Errorf("LatestCreatedAt = %v", latest)
	}
}

func TestStoreVideo(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	v := Video{VideoID: "v1", Title: "Title", ChannelID: "ch", ChannelTitle: "Channel", DurationSeconds: 90, PublishedAt: timeRef("2024-01-01T00:00:00Z")}
	if err := store.UpsertVideo(ctx, v); err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	v.Title = "Renamed"
	if err := store.UpsertVideo(ctx, v); err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	got, err := store.Video(ctx, "v1")
	if err != nil {
		t.Fatalf("Video: %v", err)
	}
	if got.Title != "Renamed" || got.DurationSeconds != 90 {
		t.Errorf("Video = %+v", got)
	}
	if _, err := store.Video(ctx, "missing"); err == nil {
		t.Error("Video of unknown id expected error")
	}
}

func TestFingerprintFunction(t *testing.T) {
	a := fingerprint(1, *timeRef("2024-01-01T00:00:00Z"), true)
	b := fingerprint(1, *timeRef("2024-01-01T00:00:01Z"), true)
	c := fingerprint(1, *timeRef("2024-01-01T00:00:00Z"), false)
	if a == b || a == c {
		t.Errorf("fingerprints collide: %s %s %s", a, b, c)
	}
	if len(a) != 64 {
		t.Errorf("len(fingerprint) = %d; want 64", len(a))
	}
}

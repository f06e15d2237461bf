package publish

import (
	"context"
	"testing"

	"github.com/screenloom/screenloom/pkg/errors"
)

func TestPublishOverwrites(t *testing.T) {
	ctx := context.Background()
	p, err := NewFilePublisher(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilePublisher: %v", err)
	}

	first, err := p.Publish(ctx, "proj-1", []byte("v1"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if first.ShareToken == "" {
		t.Fatal("share token not minted")
	}

	second, err := p.Publish(ctx, "proj-1", []byte("version two"))
	if err != nil {
		t.Fatalf("Publish again: %v", err)
	}

	// Overwrite, not append: one artifact, stable token, new content.
	if second.ShareToken != first.ShareToken {
		t.Errorf("share token changed on republish: %q vs %q", second.ShareToken, first.ShareToken)
	}
	art, doc, err := p.Latest(ctx, "proj-1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if string(doc) != "version two" {
		t.Errorf("Latest doc = %q, want the republished content", doc)
	}
	if art.Size != len("version two") {
		t.Errorf("Size = %d, want %d", art.Size, len("version two"))
	}
}

func TestByToken(t *testing.T) {
	ctx := context.Background()
	p, _ := NewFilePublisher(t.TempDir())

	a, _ := p.Publish(ctx, "proj-a", []byte("doc a"))
	p.Publish(ctx, "proj-b", []byte("doc b"))

	art, doc, err := p.ByToken(ctx, a.ShareToken)
	if err != nil {
		t.Fatalf("ByToken: %v", err)
	}
	if art.ProjectID != "proj-a" || string(doc) != "doc a" {
		t.Errorf("ByToken = %q/%q, want proj-a/doc a", art.ProjectID, doc)
	}

	if _, _, err := p.ByToken(ctx, "bogus"); !errors.Is(err, errors.ErrCodeArtifactNotFound) {
		t.Errorf("unknown token error = %v, want %s", err, errors.ErrCodeArtifactNotFound)
	}
}

func TestLatestUnpublished(t *testing.T) {
	ctx := context.Background()
	p, _ := NewFilePublisher(t.TempDir())

	if _, _, err := p.Latest(ctx, "nope"); !errors.Is(err, errors.ErrCodeArtifactNotFound) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeArtifactNotFound)
	}
}

func TestUnpublish(t *testing.T) {
	ctx := context.Background()
	p, _ := NewFilePublisher(t.TempDir())

	p.Publish(ctx, "proj-1", []byte("doc"))
	if err := p.Unpublish(ctx, "proj-1"); err != nil {
		t.Fatalf("Unpublish: %v", err)
	}
	if _, _, err := p.Latest(ctx, "proj-1"); !errors.Is(err, errors.ErrCodeArtifactNotFound) {
		t.Errorf("Latest after Unpublish = %v, want not found", err)
	}

	// Idempotent.
	if err := p.Unpublish(ctx, "proj-1"); err != nil {
		t.Errorf("second Unpublish: %v", err)
	}
}

func TestGenerateShareTokenUnique(t *testing.T) {
	a, err := GenerateShareToken()
	if err != nil {
		t.Fatalf("GenerateShareToken: %v", err)
	}
	b, _ := GenerateShareToken()
	if a == b {
		t.Error("tokens should be unique")
	}
	if len(a) < 32 {
		t.Errorf("token too short: %d chars", len(a))
	}
}

// Package publish persists composed documents as shareable artifacts.
//
// Every project has exactly one logical "latest" artifact: repeated
// publishing overwrites it in place, never appends a new version. Combined
// with the compositor's byte-identical output for unchanged inputs, this
// makes publish safely idempotent.
//
// Artifacts are addressed by a share token generated once per project with
// crypto/rand; republishing keeps the token stable so shared links survive
// regeneration.
package publish

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Artifact describes one published document.
type Artifact struct {
	ProjectID   string    `json:"project_id"`
	ShareToken  string    `json:"share_token"`
	Size        int       `json:"size"`
	PublishedAt time.Time `json:"published_at"`
}

// Publisher is the artifact storage boundary.
type Publisher interface {
	// Publish stores doc as the project's latest artifact, overwriting any
	// previous one. The share token is minted on first publish and kept
	// stable afterwards.
	Publish(ctx context.Context, projectID string, doc []byte) (*Artifact, error)

	// Latest returns the current artifact and its document bytes.
	Latest(ctx context.Context, projectID string) (*Artifact, []byte, error)

	// ByToken resolves a share token to its artifact and document.
	ByToken(ctx context.Context, token string) (*Artifact, []byte, error)

	// Unpublish removes the project's artifact. Removing a project that
	// has nothing published is not an error.
	Unpublish(ctx context.Context, projectID string) error
}

// GenerateShareToken creates a cryptographically secure random share token.
func GenerateShareToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

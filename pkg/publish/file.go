package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/screenloom/screenloom/pkg/errors"
)

// FilePublisher stores artifacts on disk, one directory per project holding
// the document plus a JSON metadata file.
//
// Writes go through a temp file and rename, so a crash mid-publish leaves
// either the old artifact or the new one, never a torn document.
type FilePublisher struct {
	mu      sync.RWMutex
	baseDir string
}

const (
	docFile  = "latest.html"
	metaFile = "meta.json"
)

// NewFilePublisher creates a file-backed publisher.
// If baseDir is empty, defaults to ~/.config/screenloom/published/
func NewFilePublisher(baseDir string) (*FilePublisher, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "screenloom", "published")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create publish dir: %w", err)
	}
	return &FilePublisher{baseDir: baseDir}, nil
}

func (p *FilePublisher) projectDir(projectID string) string {
	return filepath.Join(p.baseDir, projectID)
}

// Publish stores doc as the project's latest artifact.
func (p *FilePublisher) Publish(ctx context.Context, projectID string, doc []byte) (*Artifact, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir := p.projectDir(projectID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	// Keep an existing share token stable across republishes.
	token := ""
	if prev, err := p.readMeta(projectID); err == nil {
		token = prev.ShareToken
	}
	if token == "" {
		var err error
		token, err = GenerateShareToken()
		if err != nil {
			return nil, fmt.Errorf("generate share token: %w", err)
		}
	}

	art := &Artifact{
		ProjectID:   projectID,
		ShareToken:  token,
		Size:        len(doc),
		PublishedAt: time.Now().UTC(),
	}

	if err := atomicWrite(filepath.Join(dir, docFile), doc, 0644); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	meta, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal artifact meta: %w", err)
	}
	if err := atomicWrite(filepath.Join(dir, metaFile), meta, 0644); err != nil {
		return nil, fmt.Errorf("write artifact meta: %w", err)
	}
	return art, nil
}

// Latest returns the current artifact and its document bytes.
func (p *FilePublisher) Latest(ctx context.Context, projectID string) (*Artifact, []byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	art, err := p.readMeta(projectID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := os.ReadFile(filepath.Join(p.projectDir(projectID), docFile))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeArtifactNotFound, err, "read artifact for %s", projectID)
	}
	return art, doc, nil
}

// ByToken resolves a share token by scanning project metadata.
func (p *FilePublisher) ByToken(ctx context.Context, token string) (*Artifact, []byte, error) {
	p.mu.RLock()
	entries, err := os.ReadDir(p.baseDir)
	p.mu.RUnlock()
	if err != nil {
		return nil, nil, fmt.Errorf("read publish dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		art, err := p.readMetaLocked(entry.Name())
		if err != nil {
			continue
		}
		if art.ShareToken == token {
			return p.Latest(ctx, art.ProjectID)
		}
	}
	return nil, nil, errors.New(errors.ErrCodeArtifactNotFound, "no artifact for token")
}

// Unpublish removes the project's artifact.
func (p *FilePublisher) Unpublish(ctx context.Context, projectID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.RemoveAll(p.projectDir(projectID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact dir: %w", err)
	}
	return nil
}

// readMeta requires at least a read lock held by the caller.
func (p *FilePublisher) readMeta(projectID string) (*Artifact, error) {
	return p.readMetaLocked(projectID)
}

func (p *FilePublisher) readMetaLocked(projectID string) (*Artifact, error) {
	data, err := os.ReadFile(filepath.Join(p.projectDir(projectID), metaFile))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeArtifactNotFound, "nothing published for %s", projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact meta: %w", err)
	}
	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parse artifact meta: %w", err)
	}
	return &art, nil
}

// atomicWrite writes data to a temp file in the target directory and renames
// it into place.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".publish-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Ensure FilePublisher implements Publisher.
var _ Publisher = (*FilePublisher)(nil)

// Package dynrepo creates throwaway git repositories used as sandbox roots
// when llm-fstools runs with --scratch.
package dynrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// KeepEnv keeps scratch repos on disk after Cleanup when set to "true"
const KeepEnv = "LLMFS_KEEP_SCRATCH"

const (
	authorName  = "llm-fstools"
	authorEmail = "llm-fstools@localhost"
)

// Repo is a scratch repository rooted at Dir
type Repo struct {
	Dir  string
	repo *git.Repository
}

// Create initializes a scratch repository in a new temp directory with an
// initial commit, so HEAD is always valid
func Create() (*Repo, error) {
	dir, err := os.MkdirTemp("", "llmfs-scratch-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to initialize git repository: %w", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to get repository config: %w", err)
	}
	cfg.User.Name = authorName
	cfg.User.Email = authorEmail
	if err := repo.SetConfig(cfg); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to set repository config: %w", err)
	}

	r := &Repo{Dir: dir, repo: repo}

	readme := []byte("# Scratch Repository\n\nCreated by llm-fstools. Each session's changes are committed on exit.\n")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), readme, 0644); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to create README: %w", err)
	}
	if _, _, err := r.CommitAll("Initial commit"); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	return r, nil
}

// CommitAll stages every change in the worktree and commits it. It
// reports false when there was nothing to commit.
func (r *Repo) CommitAll(message string) (plumbing.Hash, bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("failed to stage changes: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("failed to read status: %w", err)
	}
	if status.IsClean() {
		return plumbing.ZeroHash, false, nil
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		All: true,
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("failed to commit: %w", err)
	}
	return hash, true, nil
}

// CommitCount returns the number of commits reachable from HEAD
func (r *Repo) CommitCount() (int, error) {
	head, err := r.repo.Head()
	if err != nil {
		return 0, err
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return 0, err
	}
	n := 0
	err = iter.ForEach(func(*object.Commit) error {
		n++
		return nil
	})
	return n, err
}

// Cleanup removes the scratch directory unless KeepEnv is set
func (r *Repo) Cleanup() error {
	if os.Getenv(KeepEnv) == "true" {
		return nil
	}
	return os.RemoveAll(r.Dir)
}

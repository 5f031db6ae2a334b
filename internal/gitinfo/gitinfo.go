// Package gitinfo resolves best-effort repository metadata for report
// headers. Everything here degrades to empty values; a scan never fails
// because the root is not a git repository.
package gitinfo

import (
	git "github.com/go-git/go-git/v5"
)

// Meta identifies the revision a report was produced from.
type Meta struct {
	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// Resolve opens the repository at root (or any parent) and reads HEAD.
func Resolve(root string) Meta {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Meta{}
	}
	head, err := repo.Head()
	if err != nil {
		return Meta{}
	}
	m := Meta{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		m.Branch = head.Name().Short()
	}
	return m
}

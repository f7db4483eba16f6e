package scmver

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Now(),
}

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate() (*git.Repository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()
	return git.Init(storage, fs)
}

// testRepoCommit writes a file and commits it, returning the commit hash
func testRepoCommit(repo *git.Repository, filename, content string) (plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := writeFile(workTree.Filesystem, filename, content); err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := workTree.Add(filename); err != nil {
		return plumbing.ZeroHash, err
	}

	return workTree.Commit("Commit "+filename, &git.CommitOptions{Author: testSignature})
}

// testRepoTag creates a lightweight tag pointing at the given commit
func testRepoTag(repo *git.Repository, name string, hash plumbing.Hash) error {
	_, err := repo.CreateTag(name, hash, nil)
	return err
}

// testRepoCheckout creates and checks out a branch
func testRepoCheckout(repo *git.Repository, branch string) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return err
	}
	return workTree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
	})
}

// testRepoDirtyFile drops an uncommitted file into the worktree
func testRepoDirtyFile(repo *git.Repository, filename string) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return err
	}
	return writeFile(workTree.Filesystem, filename, "uncommitted")
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}

// testConfig returns a Config that records warnings instead of printing
func testConfig() (*Config, *[]string) {
	warnings := &[]string{}
	config := NewConfig()
	config.Warn = func(msg string) {
		*warnings = append(*warnings, msg)
	}
	return config, warnings
}

func intPtr(n int) *int {
	return &n
}

package scmver

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/blang/semver"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// fallbackTag seeds snapshots for repositories with no matching tag.
const fallbackTag = "0.0"

// Options configures snapshot extraction from a Git repository.
type Options struct {
	// Repository is the Git repository to describe.
	Repository *git.Repository

	// Commitish specifies which commit to describe (default: "HEAD").
	Commitish plumbing.Revision

	// Config carries the tag pattern, version parser and scheme defaults.
	Config *Config

	// FallbackVersion seeds the snapshot when no tag matches
	// (default: "0.0").
	FallbackVersion string
}

// OpenRepository opens a Git repository at the specified path.
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// Describe gathers the raw SCM facts for a commit and builds a snapshot
// from them: the nearest matching tag, the commit distance since it, the
// dirty state, the branch name and the commit id and date.
func Describe(opts Options) (*ScmVersion, error) {
	if opts.Repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if opts.Commitish == "" {
		opts.Commitish = "HEAD"
	}
	if opts.Config == nil {
		opts.Config = NewConfig()
	}

	revision, err := opts.Repository.ResolveRevision(opts.Commitish)
	if err != nil {
		return nil, fmt.Errorf("resolving commitish: %w", err)
	}
	commit, err := opts.Repository.CommitObject(*revision)
	if err != nil {
		return nil, fmt.Errorf("getting commit object: %w", err)
	}

	tag, distance, exact, err := describeTag(opts.Repository, commit, opts.Config)
	if err != nil {
		return nil, fmt.Errorf("describing tag: %w", err)
	}

	dirty, err := workTreeIsDirty(opts.Repository)
	if err != nil {
		return nil, fmt.Errorf("checking if worktree is dirty: %w", err)
	}

	branch := ""
	if head, err := opts.Repository.Head(); err == nil && head.Name().IsBranch() {
		branch = head.Name().Short()
	}

	meta := MetaOptions{
		Dirty:    dirty,
		Node:     revision.String()[:8],
		Branch:   branch,
		NodeDate: commit.Committer.When.UTC(),
	}
	if !exact {
		meta.Distance = &distance
	}
	if tag == "" {
		tag = opts.FallbackVersion
		if tag == "" {
			tag = fallbackTag
		}
		opts.Config.warnf("no matching tag found, falling back to %q", tag)
	}

	return Meta(tag, meta, opts.Config)
}

// describeTag finds the tag describing commit: a matching tag on the
// commit itself (exact), or the nearest tagged ancestor plus the number
// of commits since it. No tag at all yields "" with the full commit
// count as distance.
func describeTag(repo *git.Repository, commit *object.Commit, config *Config) (string, int, bool, error) {
	tagged, err := tagsByCommit(repo, config)
	if err != nil {
		return "", 0, false, err
	}
	if tag, ok := tagged[commit.Hash]; ok {
		return tag, 0, true, nil
	}

	var found string
	distance := 0
	walker := object.NewCommitPreorderIter(commit, nil, nil)
	err = walker.ForEach(func(c *object.Commit) error {
		if tag, ok := tagged[c.Hash]; ok {
			found = tag
			return storer.ErrStop
		}
		distance++
		return nil
	})
	if err != nil {
		return "", 0, false, fmt.Errorf("walking history: %w", err)
	}
	return found, distance, false, nil
}

// tagsByCommit maps each tagged commit to its best matching tag, skipping
// tags the configured pattern does not recognize.
func tagsByCommit(repo *git.Repository, config *Config) (map[plumbing.Hash]string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	byCommit := make(map[plumbing.Hash]string)
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name().Short()
		if ParseVersionTag(name, config) == nil {
			return nil
		}

		target := ref.Hash()
		obj, err := repo.TagObject(ref.Hash())
		switch err {
		case nil:
			// Annotated tag
			target = obj.Target
		case plumbing.ErrObjectNotFound:
			// Lightweight tag
		default:
			return err
		}

		if current, ok := byCommit[target]; !ok || tagLess(current, name) {
			byCommit[target] = name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return byCommit, nil
}

// tagLess orders candidate tags pointing at the same commit: tags that
// parse as semver sort by version, anything else by name, and parsable
// tags win over unparsable ones.
func tagLess(a, b string) bool {
	av, aerr := semver.ParseTolerant(strings.TrimPrefix(a, "v"))
	bv, berr := semver.ParseTolerant(strings.TrimPrefix(b, "v"))
	switch {
	case aerr == nil && berr == nil:
		return av.LT(bv)
	case aerr != nil && berr != nil:
		return a < b
	default:
		return aerr != nil
	}
}

func workTreeIsDirty(repo *git.Repository) (bool, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	// Fast path for filesystem storage
	if _, ok := repo.Storer.(*filesystem.Storage); ok {
		return checkDirtyWithGitCommand(workTree.Filesystem.Root())
	}

	// Fallback to go-git status check
	status, err := workTree.Status()
	if err != nil {
		return false, fmt.Errorf("getting git status: %w", err)
	}
	return !status.IsClean(), nil
}

func checkDirtyWithGitCommand(repoPath string) (bool, error) {
	// Refresh index first
	cmd := exec.Command("git", "update-index", "-q", "--refresh")
	cmd.Dir = repoPath
	if err := cmd.Run(); err != nil {
		// If update-index fails, assume dirty
		return true, nil
	}

	cmd = exec.Command("git", "diff-files", "--name-status", "--ignore-space-at-eol")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return true, nil
		}
		return false, err
	}
	return len(output) > 0, nil
}

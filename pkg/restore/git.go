// pkg/restore/git.go

package restore

import (
	"context"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/morselabs/wpsnap/pkg/location"
	"github.com/morselabs/wpsnap/pkg/settings"
)

// cloneRepo materializes a declared repository at target. Local targets use
// go-git in-process; remote ones shell out to git on the remote host. The
// target directory is emptied first since a clone refuses a non-empty
// directory, and the restored tree may already contain it.
func (p *Pipeline) cloneRepo(ctx context.Context, target location.Location, repo settings.GitRepo) error {
	if err := target.EnsureDirExists(ctx); err != nil {
		return err
	}
	if err := target.DeleteDirContent(ctx); err != nil {
		return err
	}

	local, ok := target.(*location.Local)
	if !ok {
		argv := []string{"git", "clone", repo.Repo, target.Path()}
		if repo.Version != "" {
			argv = []string{"git", "clone", "--branch", repo.Version, repo.Repo, target.Path()}
		}
		_, err := p.exec.Run(ctx, target, argv)
		return err
	}

	cloned, err := git.PlainCloneContext(ctx, local.Path(), false, &git.CloneOptions{URL: repo.Repo})
	if err != nil {
		return err
	}
	if repo.Version == "" {
		return nil
	}

	hash, err := cloned.ResolveRevision(plumbing.Revision(repo.Version))
	if err != nil {
		return err
	}
	wt, err := cloned.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: *hash})
}

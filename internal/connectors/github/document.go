package github

import (
	"fmt"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/corra/internal/core/domain"
)

// repoDocument converts a repository to a document summary. The content
// is the repository description; file contents come from Fetch.
func repoDocument(repo *gh.Repository) domain.Document {
	meta := map[string]string{
		"owner":          repo.GetOwner().GetLogin(),
		"repo":           repo.GetName(),
		"default_branch": repo.GetDefaultBranch(),
		"visibility":     repo.GetVisibility(),
	}
	if lang := repo.GetLanguage(); lang != "" {
		meta["language"] = lang
	}

	return domain.Document{
		ID:       "github:" + repo.GetFullName(),
		Source:   domain.SourceGitHub,
		Title:    repo.GetFullName(),
		Content:  repo.GetDescription(),
		Metadata: meta,
		Origin:   repo.GetHTMLURL(),
	}
}

// fileDocument converts fetched file content to a document.
func fileDocument(ref Reference, content *gh.RepositoryContent, text string) domain.Document {
	meta := map[string]string{
		"owner": ref.Owner,
		"repo":  ref.Repo,
		"path":  ref.Path,
	}
	if sha := content.GetSHA(); sha != "" {
		meta["sha"] = sha
	}
	if ref.Ref != "" {
		meta["ref"] = ref.Ref
	}

	return domain.Document{
		ID:       documentID(ref.Owner, ref.Repo, ref.Path),
		Source:   domain.SourceGitHub,
		Title:    fmt.Sprintf("%s/%s/%s", ref.Owner, ref.Repo, ref.Path),
		Content:  text,
		Metadata: meta,
		Origin:   content.GetHTMLURL(),
	}
}

// codeResultDocument converts a code search hit to a document whose
// content is the matched fragments.
func codeResultDocument(result *gh.CodeResult) domain.Document {
	fullName := result.GetRepository().GetFullName()
	path := result.GetPath()

	var fragments []string
	for _, match := range result.TextMatches {
		if frag := match.GetFragment(); frag != "" {
			fragments = append(fragments, frag)
		}
	}

	return domain.Document{
		ID:      fmt.Sprintf("github:%s/%s", fullName, path),
		Source:  domain.SourceGitHub,
		Title:   fmt.Sprintf("%s/%s", fullName, path),
		Content: strings.Join(fragments, "\n"),
		Metadata: map[string]string{
			"repository": fullName,
			"path":       path,
			"sha":        result.GetSHA(),
		},
		Origin: result.GetHTMLURL(),
	}
}

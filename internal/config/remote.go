package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// populateRepositoryDefaults fills an unset owner or repository from the
// GITHUB_REPOSITORY slug, then from the origin remote of the enclosing git
// checkout. Absence of either source is not an error.
func populateRepositoryDefaults(cfg *Config) error {
	if cfg.GithubOwner != "" && cfg.GithubRepo != "" {
		return nil
	}
	if slug := strings.TrimSpace(os.Getenv("GITHUB_REPOSITORY")); slug != "" {
		owner, repo, ok := strings.Cut(slug, "/")
		if !ok || owner == "" || repo == "" {
			return fmt.Errorf("invalid GITHUB_REPOSITORY value: %q", slug)
		}
		fillRepository(cfg, owner, repo)
		return nil
	}
	remoteURL, err := originRemoteURL()
	if err != nil || remoteURL == "" {
		return nil
	}
	owner, repo, err := parseGitRemoteURL(remoteURL)
	if err != nil {
		return err
	}
	fillRepository(cfg, owner, repo)
	return nil
}

func fillRepository(cfg *Config, owner, repo string) {
	if cfg.GithubOwner == "" {
		cfg.GithubOwner = owner
	}
	if cfg.GithubRepo == "" {
		cfg.GithubRepo = repo
	}
}

func originRemoteURL() (string, error) {
	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return "", err
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", errors.New("origin remote has no urls")
	}
	return urls[0], nil
}

// parseGitRemoteURL extracts owner and repository from https, ssh, scp-like
// and filesystem remote URLs.
func parseGitRemoteURL(raw string) (string, string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", errors.New("empty remote url")
	}
	var p string
	switch {
	case strings.Contains(trimmed, "://"):
		u, err := url.Parse(trimmed)
		if err != nil {
			return "", "", fmt.Errorf("invalid remote url %q: %w", raw, err)
		}
		p = u.Path
	case strings.Contains(trimmed, "@") && strings.Contains(trimmed, ":"):
		_, after, _ := strings.Cut(trimmed, ":")
		p = after
	default:
		p = filepath.ToSlash(trimmed)
	}
	p = strings.TrimSuffix(strings.Trim(p, "/"), ".git")
	parts := strings.Split(p, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", fmt.Errorf("cannot determine owner and repository from %q", raw)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

package mapper

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"go.lsp.dev/uri"
)

const (
	_interactiveInputScheme = "vscode-interactive-input"
	_interactiveSuffix      = ".interactive"
)

var (
	_interactiveInputPattern = regexp.MustCompile(`-(\d+)$`)
	_interactivePathPattern  = regexp.MustCompile(`-(\d+)\.interactive$`)
)

// DocumentURIToIdentity derives the logical session identity of a document.
// REPL documents and their input boxes resolve to interactive-<N>; every other document resolves to its cleaned path.
func DocumentURIToIdentity(docURI uri.URI) (entity.Identity, error) {
	raw := string(docURI)
	u, err := url.Parse(raw)
	if err != nil {
		return "", &errors.IdentityResolutionError{URI: raw, Reason: err.Error()}
	}

	p := u.Path
	if p == "" {
		p = u.Opaque
	}

	if u.Scheme == _interactiveInputScheme {
		return interactiveIdentity(raw, p, _interactiveInputPattern)
	}
	if strings.HasSuffix(p, _interactiveSuffix) {
		return interactiveIdentity(raw, p, _interactivePathPattern)
	}

	if p == "" {
		return "", &errors.IdentityResolutionError{URI: raw, Reason: "document has no path"}
	}
	if u.Opaque != "" {
		return entity.Identity(p), nil
	}
	return entity.Identity(path.Clean(p)), nil
}

func interactiveIdentity(raw, p string, pattern *regexp.Regexp) (entity.Identity, error) {
	match := pattern.FindStringSubmatch(p)
	if match == nil {
		return "", &errors.IdentityResolutionError{URI: raw, Reason: "no interactive instance number"}
	}
	return entity.InteractiveIdentity(match[1]), nil
}

package cache

import (
	"github.com/pipeforge/buildcache/commons"
	"github.com/pipeforge/buildcache/utils"
)

const (
	scopeSegmentDefault string = "default"
)

// Scope namespaces cache keys by owning repository and ref so that entries
// from different scopes never collide
type Scope struct {
	Root       string
	Repository string
	Ref        string
}

// ResolveScope derives the cache scope from configuration.
// The second return value is false when no scope root is configured,
// which means caching is unavailable - this is a degrade-to-no-cache
// signal, not an error.
func ResolveScope(config *commons.Config) (*Scope, bool) {
	if len(config.ScopeRootPath) == 0 {
		return nil, false
	}

	repository := config.RepositoryID
	if len(repository) == 0 {
		repository = scopeSegmentDefault
	}

	ref := config.RefID
	if len(ref) == 0 {
		ref = scopeSegmentDefault
	}

	return &Scope{
		Root:       config.ScopeRootPath,
		Repository: repository,
		Ref:        ref,
	}, true
}

// GetScopePath returns the directory all entries for the scope live under
func (scope *Scope) GetScopePath() string {
	return utils.JoinPath(scope.Root, scope.Repository, scope.Ref)
}

package cache

import (
	"fmt"
	"strings"

	"github.com/pipeforge/buildcache/commons"
)

// ValidateKey checks structural constraints on a single cache key.
// Validation is pure - it never touches storage.
func ValidateKey(key string) error {
	if len(key) == 0 {
		return commons.NewValidationError("cache key must be given")
	}

	if len(key) > commons.KeyLengthMax {
		return commons.NewValidationError(fmt.Sprintf("cache key %q is longer than %d characters", key, commons.KeyLengthMax))
	}

	if strings.Contains(key, ",") {
		return commons.NewValidationError(fmt.Sprintf("cache key %q contains a comma", key))
	}

	return nil
}

// ValidateKeys checks the primary key and the ordered restore keys used in one restore
func ValidateKeys(primaryKey string, restoreKeys []string) error {
	if len(restoreKeys)+1 > commons.RestoreKeysMax {
		return commons.NewValidationError(fmt.Sprintf("%d keys are given, but at most %d keys are allowed", len(restoreKeys)+1, commons.RestoreKeysMax))
	}

	err := ValidateKey(primaryKey)
	if err != nil {
		return err
	}

	for _, restoreKey := range restoreKeys {
		err = ValidateKey(restoreKey)
		if err != nil {
			return err
		}
	}

	return nil
}

// ValidatePaths checks the path set given by the caller
func ValidatePaths(paths []string) error {
	if len(paths) == 0 {
		return commons.NewValidationError("path set must not be empty")
	}

	for _, path := range paths {
		if len(strings.TrimSpace(path)) == 0 {
			return commons.NewValidationError("path set contains a blank path")
		}
	}

	return nil
}

package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matsen/seqcat/internal/classify"
	"github.com/matsen/seqcat/internal/config"
	"github.com/matsen/seqcat/internal/indexcache"
)

// adhocIndexName names multi-reference indices requested with --refs.
const adhocIndexName = "refs"

// recognitionKey is the index over every declared reference, the one the
// classifier searches.
func recognitionKey(cfg *config.Config) (indexcache.IndexKey, error) {
	if len(cfg.References) == 0 {
		return indexcache.IndexKey{}, errors.New("no references declared in config.yml")
	}
	return indexcache.MultiReference(classify.DefaultIndexName, cfg.References), nil
}

// categoryKey is the index over one category's references.
func categoryKey(cfg *config.Config, id string) (indexcache.IndexKey, error) {
	cat, ok := cfg.Category(id)
	if !ok {
		return indexcache.IndexKey{}, fmt.Errorf("unknown category %q", id)
	}
	return indexcache.MultiReference(cat.ID, cat.References), nil
}

// referencesKey is the index over explicitly named references.
func referencesKey(refs []string) (indexcache.IndexKey, error) {
	refs = slices.DeleteFunc(slices.Clone(refs), func(s string) bool { return s == "" })
	switch len(refs) {
	case 0:
		return indexcache.IndexKey{}, errors.New("no references given")
	case 1:
		return indexcache.SingleReference(refs[0]), nil
	}
	return indexcache.MultiReference(adhocIndexName, refs), nil
}

// buildKeys selects the indices `index build` warms.
func buildKeys(cfg *config.Config, category string, all bool) ([]indexcache.IndexKey, error) {
	if category != "" && all {
		return nil, errors.New("--category and --all are mutually exclusive")
	}
	if category != "" {
		key, err := categoryKey(cfg, category)
		if err != nil {
			return nil, err
		}
		return []indexcache.IndexKey{key}, nil
	}

	rec, err := recognitionKey(cfg)
	if err != nil {
		return nil, err
	}
	keys := []indexcache.IndexKey{rec}
	if all {
		keys = append(keys, knownKeys(cfg)[1:]...)
	}
	return keys, nil
}

// knownKeys lists the recognition index, each category index and each
// single-reference index, in that order.
func knownKeys(cfg *config.Config) []indexcache.IndexKey {
	var keys []indexcache.IndexKey
	if rec, err := recognitionKey(cfg); err == nil {
		keys = append(keys, rec)
	}
	for _, cat := range cfg.Categories {
		keys = append(keys, indexcache.MultiReference(cat.ID, cat.References))
	}
	for _, ref := range cfg.References {
		keys = append(keys, indexcache.SingleReference(ref))
	}
	return keys
}

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wikimedia-suomi/pendingbot/wiki"
)

// pageFile is the on-disk format for a set of pages to evaluate. The
// top-level wiki applies to every page that does not name its own.
type pageFile struct {
	Wiki  string       `yaml:"wiki"`
	Pages []*wiki.Page `yaml:"pages"`
}

func loadPages(path, defaultWiki string) ([]*wiki.Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page file: %w", err)
	}

	var file pageFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing page file %s: %w", path, err)
	}
	if file.Wiki == "" {
		file.Wiki = defaultWiki
	}

	for i, page := range file.Pages {
		if page == nil {
			return nil, fmt.Errorf("page file %s: entry %d is empty", path, i)
		}
		if page.Wiki == "" {
			page.Wiki = file.Wiki
		}
		if page.Wiki == "" {
			return nil, fmt.Errorf("page file %s: %q has no wiki and no default was given", path, page.Title)
		}
		page.SortPending()
	}
	if len(file.Pages) == 0 {
		return nil, fmt.Errorf("page file %s contains no pages", path)
	}
	return file.Pages, nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var defaultCategories = []string{
	"food",
	"groceries",
	"transport",
	"shopping",
	"utilities",
	"rent",
	"health",
	"entertainment",
	"travel",
	"income",
	"transfers",
	"other",
}

// CategoryCatalog is the ordered list of category names operator picks from.
type CategoryCatalog interface {
	Names() []string
	// Add appends category if it is new and returns normalized name. When the name is
	// returned together with an error the category is added but not persisted.
	Add(name string) (string, error)
}

type categoriesFile struct {
	Categories []string `yaml:"categories"`
}

// CategoryList is a CategoryCatalog kept in a YAML file. Every addition is saved at once.
type CategoryList struct {
	path  string
	names []string
}

func normalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// loadCategoryList reads categories file or creates it with default categories.
func loadCategoryList(path string) (*CategoryList, error) {
	list := &CategoryList{path: path}
	buf, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		list.appendNames(defaultCategories)
		if err := list.save(); err != nil {
			return nil, err
		}
		return list, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't read categories file '%s': %w", path, err)
	}

	var content categoriesFile
	decoder := yaml.NewDecoder(strings.NewReader(string(buf)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&content); err != nil {
		return nil, fmt.Errorf("can't decode categories file '%s': %w", path, err)
	}
	list.appendNames(content.Categories)
	return list, nil
}

// appendNames adds new normalized names keeping order, returns true if anything was added.
func (l *CategoryList) appendNames(names []string) bool {
	added := false
	for _, name := range names {
		name = normalizeCategory(name)
		if name == "" || l.contains(name) {
			continue
		}
		l.names = append(l.names, name)
		added = true
	}
	return added
}

func (l *CategoryList) contains(name string) bool {
	for _, existing := range l.names {
		if existing == name {
			return true
		}
	}
	return false
}

func (l *CategoryList) Names() []string {
	return append([]string(nil), l.names...)
}

func (l *CategoryList) Add(name string) (string, error) {
	name = normalizeCategory(name)
	if name == "" {
		return "", fmt.Errorf("empty category name")
	}
	if !l.appendNames([]string{name}) {
		return name, nil
	}
	return name, l.save()
}

// Merge appends categories discovered elsewhere, e.g. already used in storage.
func (l *CategoryList) Merge(names []string) error {
	if !l.appendNames(names) {
		return nil
	}
	return l.save()
}

func (l *CategoryList) save() error {
	if l.path == "" {
		return nil
	}
	buf, err := yaml.Marshal(categoriesFile{Categories: l.names})
	if err != nil {
		return err
	}
	if err := os.WriteFile(l.path, buf, 0644); err != nil {
		return fmt.Errorf("can't save categories into '%s': %w", l.path, err)
	}
	return nil
}

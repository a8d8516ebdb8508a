// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateFileTree creates multiple files from a map of path -> content.
func CreateFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		WriteFile(t, path, content)
	}
}

// SourceDir is the default location of Kotlin sources below a project root.
var SourceDir = filepath.Join("app", "src", "main")

// Project creates a temporary project root whose app/src/main directory
// holds files (paths relative to app/src/main). It returns the symlink-free
// project root.
func Project(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks error: %v", err)
	}
	CreateFileTree(t, filepath.Join(root, SourceDir), files)
	return root
}

// RelPaths returns paths relative to base, sorted. base may contain symlinks.
func RelPaths(t *testing.T, base string, paths []string) []string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(base)
	if err != nil {
		t.Fatalf("EvalSymlinks(%s) error: %v", base, err)
	}
	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(resolved, p)
		if err != nil {
			t.Fatalf("Rel(%s) error: %v", p, err)
		}
		rels = append(rels, filepath.ToSlash(rel))
	}
	slices.Sort(rels)
	return rels
}

// Controller returns Kotlin source for a controller class with the given
// val dependencies and Observable<UiChange> stream properties.
func Controller(name string, deps, streams int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "package org.example\n\nclass %s(", name)
	for i := range deps {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "private val dep%c: Dep%c", 'A'+i, 'A'+i)
	}
	sb.WriteString(") : ObservableTransformer<UiEvent, UiChange> {\n")
	for i := range streams {
		fmt.Fprintf(&sb, "  private val stream%c: Observable<UiChange> = Observable.never()\n", 'A'+i)
	}
	sb.WriteString("\n  override fun apply(events: Observable<UiEvent>): ObservableSource<UiChange> = Observable.never()\n}\n")
	return sb.String()
}

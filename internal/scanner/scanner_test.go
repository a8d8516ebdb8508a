package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/panbanda/ctrlmetrics/internal/testutil"
	"github.com/panbanda/ctrlmetrics/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScanner(t *testing.T, cfg *config.Config, opts ...Option) *Scanner {
	t.Helper()
	s, err := NewScanner(cfg, opts...)
	require.NoError(t, err)
	return s
}

func TestNewScanner(t *testing.T) {
	s := newScanner(t, nil)
	assert.NotNil(t, s.config, "nil config should fall back to defaults")

	cfg := config.DefaultConfig()
	s = newScanner(t, cfg)
	assert.Same(t, cfg, s.config)
}

func TestMatch(t *testing.T) {
	s := newScanner(t, nil)

	tests := []struct {
		name string
		want bool
	}{
		{"FooController.kt", true},
		{"Controller.kt", true},
		{"FooController.kts", false},
		{"FooController.java", false},
		{"FooControllerTest.kt", false},
		{"foocontroller.kt", false},
		{"FooController.kt.bak", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Match(tt.name), tt.name)
	}
}

func TestMatchCustomSuffix(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scan.Suffix = "Presenter[1].kt"
	s := newScanner(t, cfg)

	assert.True(t, s.Match("HomePresenter[1].kt"), "glob metacharacters are literal")
	assert.False(t, s.Match("HomePresenter1.kt"))
}

func TestScanDir(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.CreateFileTree(t, tmpDir, map[string]string{
		"FooController.kt":              "class FooController",
		"feature/BarController.kt":      "class BarController",
		"feature/deep/BazController.kt": "class BazController",
		"feature/Helper.kt":             "class Helper",
		"FooControllerTest.kt":          "class FooControllerTest",
		"res/layout.xml":                "<x/>",
	})

	files, err := newScanner(t, nil).ScanDir(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"FooController.kt",
		"feature/BarController.kt",
		"feature/deep/BazController.kt",
	}, testutil.RelPaths(t, tmpDir, files))
}

func TestScanDirLexicalOrder(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.CreateFileTree(t, tmpDir, map[string]string{
		"b/BController.kt": "",
		"a/AController.kt": "",
		"CController.kt":   "",
	})

	files, err := newScanner(t, nil).ScanDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "CController.kt", filepath.Base(files[0]))
	assert.Equal(t, "AController.kt", filepath.Base(files[1]))
	assert.Equal(t, "BController.kt", filepath.Base(files[2]))
}

func TestScanDirExcludePatterns(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.CreateFileTree(t, tmpDir, map[string]string{
		"FooController.kt":           "",
		"generated/GenController.kt": "",
		"legacy/OldController.kt":    "",
		"ui/LegacyController.kt":     "",
	})

	cfg := config.DefaultConfig()
	cfg.Scan.Exclude = []string{"generated/", "Legacy*.kt"}

	files, err := newScanner(t, cfg).ScanDir(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"FooController.kt",
		"legacy/OldController.kt",
	}, testutil.RelPaths(t, tmpDir, files))
}

func TestScanDirWithGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0755))
	testutil.CreateFileTree(t, tmpDir, map[string]string{
		".gitignore":                    "build/\n",
		"src/FooController.kt":          "",
		"src/build/CopyController.kt":   "",
		"src/feature/.gitignore":        "SkipController.kt\n",
		"src/feature/SkipController.kt": "",
		"src/feature/KeepController.kt": "",
	})
	root := filepath.Join(tmpDir, "src")

	cfg := config.DefaultConfig()
	cfg.Scan.Gitignore = true
	files, err := newScanner(t, cfg).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"FooController.kt",
		"feature/KeepController.kt",
	}, testutil.RelPaths(t, root, files))

	cfg.Scan.Gitignore = false
	files, err = newScanner(t, cfg).ScanDir(root)
	require.NoError(t, err)
	assert.Len(t, files, 4)
}

func TestScanDirEmptyDirectory(t *testing.T) {
	files, err := newScanner(t, nil).ScanDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanDirMissingRoot(t *testing.T) {
	_, err := newScanner(t, nil).ScanDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestScanDirRootIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FooController.kt")
	testutil.WriteFile(t, path, "")

	_, err := newScanner(t, nil).ScanDir(path)
	assert.ErrorContains(t, err, "not a directory")
}

func TestFilesStopsEarly(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.CreateFileTree(t, tmpDir, map[string]string{
		"AController.kt": "",
		"BController.kt": "",
		"CController.kt": "",
	})

	var got []string
	for path := range newScanner(t, nil).Files(tmpDir) {
		got = append(got, filepath.Base(path))
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"AController.kt", "BController.kt"}, got)
}

func TestFilesWarnsOnMissingRoot(t *testing.T) {
	var mu sync.Mutex
	var warned []string
	s := newScanner(t, nil, WithWarningHandler(func(path string, err error) {
		mu.Lock()
		defer mu.Unlock()
		warned = append(warned, path)
	}))

	missing := filepath.Join(t.TempDir(), "missing")
	for range s.Files(missing) {
		t.Fatal("no files expected")
	}
	assert.Equal(t, []string{missing}, warned)
}

func TestIsWithinRoot(t *testing.T) {
	tests := []struct {
		path string
		root string
		want bool
	}{
		{"/root/project/file.kt", "/root/project", true},
		{"/root/project", "/root/project", true},
		{"/root/project/a/../b.kt", "/root/project", true},
		{"/root/project2/file.kt", "/root/project", false},
		{"/root/other/file.kt", "/root/project", false},
		{"/root/project/../other/file.kt", "/root/project", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isWithinRoot(tt.path, tt.root), tt.path)
	}
}

func TestFindGitRoot(t *testing.T) {
	tmpDir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0755))
	nested := filepath.Join(tmpDir, "app", "src", "main")
	require.NoError(t, os.MkdirAll(nested, 0755))

	assert.Equal(t, tmpDir, findGitRoot(nested))
}

func TestScanDirSkipsEscapingSymlinks(t *testing.T) {
	tmpDir := t.TempDir()
	outside := t.TempDir()
	testutil.WriteFile(t, filepath.Join(outside, "OutsideController.kt"), "")
	testutil.WriteFile(t, filepath.Join(tmpDir, "InsideController.kt"), "")

	link := filepath.Join(tmpDir, "LinkedController.kt")
	if err := os.Symlink(filepath.Join(outside, "OutsideController.kt"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	files, err := newScanner(t, nil).ScanDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"InsideController.kt"}, testutil.RelPaths(t, tmpDir, files))
}

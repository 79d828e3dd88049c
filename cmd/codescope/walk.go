package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codescope/codescope"
)

// Directories never worth analyzing, regardless of .gitignore.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

const maxFileSize = 2 << 20 // larger files are almost certainly generated

// collectSnapshot walks root and reads every candidate source file into a
// snapshot. A .gitignore at the root is honored; file contents are read
// here so the pipeline itself never touches the filesystem.
func collectSnapshot(root, projectID string) (codescope.Snapshot, error) {
	snap := codescope.Snapshot{ProjectID: projectID, SourceRoots: []string{"."}}

	var ign *ignore.GitIgnore
	if matcher, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		ign = matcher
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if ign != nil && ign.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if ign != nil && ign.MatchesPath(rel) {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxFileSize {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return nil // unreadable files are skipped, not fatal
		}
		snap.Files = append(snap.Files, codescope.SourceFile{
			Path:    filepath.ToSlash(rel),
			Content: content,
		})
		return nil
	})
	if err != nil {
		return codescope.Snapshot{}, err
	}
	return snap, nil
}

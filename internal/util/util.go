// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package util holds small filesystem helpers shared by the CLI and
// the logging setup.
package util

import (
	"os"
	"path/filepath"
	"strings"
)

// EnsureFileFolderHierarchy creates the directory chain a file path
// needs before the file itself is opened.
func EnsureFileFolderHierarchy(path string) error {
	return EnsureFolderHierarchy(filepath.Dir(path))
}

// EnsureFolderHierarchy creates the directory chain for a folder path.
func EnsureFolderHierarchy(path string) error {
	return os.MkdirAll(path, 0755)
}

// ExpandHomePath rewrites a leading ~ to the user's home directory.
// When the home directory cannot be resolved the path is anchored to
// the working directory instead.
func ExpandHomePath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("./", path[1:])
	}
	return filepath.Join(home, path[1:])
}

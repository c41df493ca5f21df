package core

import (
	"io/fs"
	"path"
	"strings"
)

// CopyFromFS copies every regular file under srcRoot in a read-only
// filesystem (embed.FS, testing/fstest.MapFS, another provider) into dst,
// recreating the directory structure. Empty directories are created too.
//
// Use "." as srcRoot to copy the whole source.
//
// Example:
//
//	//go:embed testdata/*
//	var seed embed.FS
//
//	err := core.CopyFromFS(seed, remote, "testdata")
func CopyFromFS(src fs.FS, dst WriteFS, srcRoot string) error {
	return fs.WalkDir(src, srcRoot, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		dstPath := filePath
		if srcRoot != "." && srcRoot != "" {
			dstPath = strings.TrimPrefix(filePath, srcRoot)
			dstPath = strings.TrimPrefix(dstPath, "/")
		}
		if dstPath == "" || dstPath == "." {
			return nil
		}

		if d.IsDir() {
			return dst.MkdirAll(dstPath, 0o755)
		}

		data, err := fs.ReadFile(src, filePath)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		if dir := path.Dir(dstPath); dir != "." {
			if err := dst.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		return dst.WriteFile(dstPath, data, info.Mode().Perm())
	})
}

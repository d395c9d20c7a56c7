package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Archive copies the JSON files of a data directory into named backups and back.
type Archive struct {
	dataDir   string
	backupDir string
}

func NewArchive(dataDir, backupDir string) *Archive {
	return &Archive{dataDir: dataDir, backupDir: backupDir}
}

// Backup copies every JSON file under the data directory to backupDir/name,
// keeping the relative layout. It returns the backup directory.
func (a *Archive) Backup(ctx context.Context, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid backup name %q", name)
	}
	dest := filepath.Join(a.backupDir, name)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", err
	}
	if err := copyJSONTree(ctx, a.dataDir, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Restore copies every JSON file of a backup directory over the data directory.
func (a *Archive) Restore(ctx context.Context, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("backup directory %s not found", dir)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return copyJSONTree(ctx, dir, a.dataDir)
}

func copyJSONTree(ctx context.Context, src, dst string) error {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return copyFile(path, filepath.Join(dst, rel))
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return writeFileAtomic(dst, data)
}

package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gamemaster-quiz/internal/bankfile"
	"gamemaster-quiz/internal/domain"
)

// CustomDir is the sub-directory of the quiz directory holding user-created banks.
const CustomDir = "custom"

// Catalog stores one JSON file per bank: built-ins in dir, custom banks in dir/custom.
type Catalog struct {
	dir string
}

func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

func (c *Catalog) ListBanks(_ context.Context) ([]domain.BankRef, error) {
	var refs []domain.BankRef
	for _, custom := range []bool{false, true} {
		dir := c.dirFor(custom)
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			name := entry.Name()
			if !entry.Type().IsRegular() || !strings.HasSuffix(name, ".json") {
				continue
			}
			info, err := entry.Info()
			if err != nil || info.Size() == 0 {
				continue
			}
			refs = append(refs, domain.BankRef{
				ID:     strings.TrimSuffix(name, ".json"),
				Path:   filepath.Join(dir, name),
				Custom: custom,
			})
		}
	}
	return refs, nil
}

func (c *Catalog) LoadBank(_ context.Context, key domain.BankKey) (domain.QuestionBank, error) {
	path, err := c.pathFor(key)
	if err != nil {
		return domain.QuestionBank{}, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.QuestionBank{}, fmt.Errorf("bank %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("bank %s: %w: %v", key, domain.ErrCorrupt, err)
	}
	return bankfile.Decode(key, data)
}

func (c *Catalog) SaveBank(_ context.Context, bank domain.QuestionBank) (domain.BankRef, error) {
	path, err := c.pathFor(bank.Key())
	if err != nil {
		return domain.BankRef{}, err
	}
	data, err := bankfile.Encode(bank)
	if err != nil {
		return domain.BankRef{}, err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return domain.BankRef{}, fmt.Errorf("write bank %s: %w", bank.Key(), err)
	}
	return domain.BankRef{ID: bank.ID, Path: path, Custom: bank.Custom}, nil
}

func (c *Catalog) DeleteBank(_ context.Context, key domain.BankKey) error {
	path, err := c.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("bank %s: %w", key, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

// EnsureDirs creates the built-in and custom directories.
func (c *Catalog) EnsureDirs() error {
	return os.MkdirAll(c.dirFor(true), 0o755)
}

func (c *Catalog) dirFor(custom bool) string {
	if custom {
		return filepath.Join(c.dir, CustomDir)
	}
	return c.dir
}

func (c *Catalog) pathFor(key domain.BankKey) (string, error) {
	if key.ID == "" || key.ID == "." || key.ID == ".." || strings.ContainsAny(key.ID, `/\`) {
		return "", fmt.Errorf("bank %q: %w", key.ID, domain.ErrNotFound)
	}
	return filepath.Join(c.dirFor(key.Custom), key.ID+".json"), nil
}

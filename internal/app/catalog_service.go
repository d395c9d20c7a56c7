package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gamemaster-quiz/internal/bankfile"
	"gamemaster-quiz/internal/domain"
	"gamemaster-quiz/internal/logger"
)

// CatalogService lists, reads and edits quiz banks. Reads go through the cache.
type CatalogService struct {
	store BankStore
	cache BankCache
	log   *logger.Logger
}

func NewCatalogService(store BankStore, cache BankCache, log *logger.Logger) *CatalogService {
	return &CatalogService{store: store, cache: cache, log: log}
}

func (c *CatalogService) ListAvailable(ctx context.Context) ([]domain.BankRef, error) {
	return c.store.ListBanks(ctx)
}

func (c *CatalogService) GetBank(ctx context.Context, key domain.BankKey) (domain.QuestionBank, error) {
	return c.cache.GetBank(ctx, key)
}

// SeedDefaults writes every built-in bank that is missing or unplayable and returns
// the ids it wrote.
func (c *CatalogService) SeedDefaults(ctx context.Context) ([]string, error) {
	defaults, err := bankfile.Defaults()
	if err != nil {
		return nil, err
	}
	var written []string
	for _, bank := range defaults {
		_, err := c.store.LoadBank(ctx, bank.Key())
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) && !domain.IsUnplayable(err) {
			return written, err
		}
		if _, err := c.store.SaveBank(ctx, bank); err != nil {
			return written, fmt.Errorf("seed %s: %w", bank.ID, err)
		}
		if err := c.cache.Invalidate(ctx, bank.Key()); err != nil {
			return written, err
		}
		written = append(written, bank.ID)
	}
	if len(written) > 0 {
		c.log.Info("default quizzes created", "banks", written)
	}
	return written, nil
}

// CreateCustom saves a user-authored bank as "<username>_<safe name>". Questions
// without a prompt are skipped and blank options become "Option N".
func (c *CatalogService) CreateCustom(ctx context.Context, username, name string, questions []domain.Question) (domain.BankRef, error) {
	safe := bankfile.SafeName(name)
	if username == "" || safe == "" {
		return domain.BankRef{}, fmt.Errorf("%w: quiz name and author are required", domain.ErrInvalidInput)
	}

	kept := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		prompt := strings.TrimSpace(q.Prompt)
		if prompt == "" {
			continue
		}
		options := make([]string, len(q.Options))
		for i, opt := range q.Options {
			options[i] = strings.TrimSpace(opt)
			if options[i] == "" {
				options[i] = fmt.Sprintf("Option %d", i+1)
			}
		}
		kept = append(kept, domain.Question{
			Prompt:       prompt,
			Options:      bankfile.PadOptions(options),
			CorrectIndex: q.CorrectIndex,
		})
	}
	if len(kept) == 0 {
		return domain.BankRef{}, fmt.Errorf("%w: at least one question is required", domain.ErrInvalidInput)
	}

	bank := domain.QuestionBank{
		ID:          username + "_" + safe,
		Custom:      true,
		Category:    "CUSTOM",
		Description: "Custom quiz by " + username,
		CreatedBy:   username,
		Questions:   kept,
	}
	return c.save(ctx, bank)
}

// ImportBank stores an external bank file as a custom bank named after its category.
func (c *CatalogService) ImportBank(ctx context.Context, data []byte) (domain.BankRef, error) {
	bank, err := bankfile.DecodeImport(domain.BankKey{ID: "import", Custom: true}, data)
	if err != nil {
		return domain.BankRef{}, err
	}
	name := bankfile.SafeName(bank.Category)
	if name == "" {
		name = "imported_quiz"
	}
	bank.ID = name + "_imported"
	return c.save(ctx, bank)
}

// ExportBank renders a stored bank in the file layout.
func (c *CatalogService) ExportBank(ctx context.Context, key domain.BankKey) ([]byte, error) {
	bank, err := c.store.LoadBank(ctx, key)
	if err != nil {
		return nil, err
	}
	return bankfile.Encode(bank)
}

// DeleteBank removes a custom bank; built-in banks cannot be deleted.
func (c *CatalogService) DeleteBank(ctx context.Context, key domain.BankKey) error {
	if !key.Custom {
		return fmt.Errorf("%w: built-in quiz %s cannot be deleted", domain.ErrInvalidInput, key.ID)
	}
	if err := c.store.DeleteBank(ctx, key); err != nil {
		return err
	}
	c.log.Info("quiz deleted", "bank", key.String())
	return c.cache.Invalidate(ctx, key)
}

// Purge drops every cached bank.
func (c *CatalogService) Purge(ctx context.Context) error {
	return c.cache.Purge(ctx)
}

func (c *CatalogService) save(ctx context.Context, bank domain.QuestionBank) (domain.BankRef, error) {
	if err := bankfile.Validate(bank); err != nil {
		return domain.BankRef{}, err
	}
	ref, err := c.store.SaveBank(ctx, bank)
	if err != nil {
		return domain.BankRef{}, err
	}
	if err := c.cache.Invalidate(ctx, bank.Key()); err != nil {
		return ref, err
	}
	c.log.Info("quiz saved", "bank", bank.Key().String(), "questions", len(bank.Questions))
	return ref, nil
}

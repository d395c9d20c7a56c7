package memory

import (
	"context"
	"sort"
	"sync"

	"gamemaster-quiz/internal/domain"
)

// BankStore is a simple bank store backed by an in-memory map (useful for tests/demos).
type BankStore struct {
	mu    sync.RWMutex
	banks map[domain.BankKey]domain.QuestionBank
}

func NewBankStore(banks ...domain.QuestionBank) *BankStore {
	s := &BankStore{banks: make(map[domain.BankKey]domain.QuestionBank, len(banks))}
	for _, b := range banks {
		s.banks[b.Key()] = b
	}
	return s
}

func (s *BankStore) ListBanks(_ context.Context) ([]domain.BankRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]domain.BankRef, 0, len(s.banks))
	for key := range s.banks {
		refs = append(refs, domain.BankRef{ID: key.ID, Path: "memory:" + key.String(), Custom: key.Custom})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Custom != refs[j].Custom {
			return !refs[i].Custom
		}
		return refs[i].ID < refs[j].ID
	})
	return refs, nil
}

func (s *BankStore) LoadBank(_ context.Context, key domain.BankKey) (domain.QuestionBank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if bank, ok := s.banks[key]; ok {
		return bank, nil
	}
	return domain.QuestionBank{}, domain.ErrNotFound
}

func (s *BankStore) SaveBank(_ context.Context, bank domain.QuestionBank) (domain.BankRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banks[bank.Key()] = bank
	return domain.BankRef{ID: bank.ID, Path: "memory:" + bank.Key().String(), Custom: bank.Custom}, nil
}

func (s *BankStore) DeleteBank(_ context.Context, key domain.BankKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.banks[key]; !ok {
		return domain.ErrNotFound
	}
	delete(s.banks, key)
	return nil
}

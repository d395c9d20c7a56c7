package bankfile

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"gamemaster-quiz/internal/domain"
)

//go:embed defaults/*.json
var defaultFS embed.FS

// Defaults returns the built-in banks shipped with the binary, ordered by id.
func Defaults() ([]domain.QuestionBank, error) {
	entries, err := defaultFS.ReadDir("defaults")
	if err != nil {
		return nil, err
	}
	banks := make([]domain.QuestionBank, 0, len(entries))
	for _, entry := range entries {
		data, err := defaultFS.ReadFile(path.Join("defaults", entry.Name()))
		if err != nil {
			return nil, err
		}
		key := domain.BankKey{ID: strings.TrimSuffix(entry.Name(), ".json")}
		bank, err := Decode(key, data)
		if err != nil {
			return nil, fmt.Errorf("embedded bank: %w", err)
		}
		banks = append(banks, bank)
	}
	return banks, nil
}

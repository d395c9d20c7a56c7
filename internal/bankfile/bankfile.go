// Package bankfile is the on-disk JSON format of quiz banks and the validation
// applied whenever a bank crosses into the application.
package bankfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gamemaster-quiz/internal/domain"
	"github.com/go-playground/validator/v10"
)

// OptionsPerQuestion is the number of options every playable question carries.
const OptionsPerQuestion = 4

type fileQuestion struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,len=4"`
	CorrectAnswer *int     `json:"correct_answer" validate:"required"`
}

type fileBank struct {
	Category    string         `json:"category"`
	Description string         `json:"description"`
	CreatedBy   string         `json:"created_by,omitempty"`
	Questions   []fileQuestion `json:"questions" validate:"dive"`
}

var validate = validator.New()

// Decode parses and validates a stored bank. The key fills in ID and Custom, which
// are not part of the file body.
func Decode(key domain.BankKey, data []byte) (domain.QuestionBank, error) {
	return decode(key, data, false)
}

// DecodeImport is Decode for externally supplied files: questions with fewer than four
// options are padded before validation.
func DecodeImport(key domain.BankKey, data []byte) (domain.QuestionBank, error) {
	return decode(key, data, true)
}

func decode(key domain.BankKey, data []byte, pad bool) (domain.QuestionBank, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.QuestionBank{}, fmt.Errorf("bank %s: file is empty: %w", key, domain.ErrEmpty)
	}
	var raw fileBank
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("bank %s: %w: %v", key, domain.ErrCorrupt, err)
	}
	if pad {
		for i := range raw.Questions {
			raw.Questions[i].Options = PadOptions(raw.Questions[i].Options)
		}
	}
	if err := check(key, raw); err != nil {
		return domain.QuestionBank{}, err
	}

	bank := domain.QuestionBank{
		ID:          key.ID,
		Custom:      key.Custom,
		Category:    raw.Category,
		Description: raw.Description,
		CreatedBy:   raw.CreatedBy,
		Questions:   make([]domain.Question, 0, len(raw.Questions)),
	}
	for _, q := range raw.Questions {
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		bank.Questions = append(bank.Questions, domain.Question{
			Prompt:       q.Question,
			Options:      options,
			CorrectIndex: *q.CorrectAnswer,
		})
	}
	return bank, nil
}

// Validate applies the load-time checks to a bank built in memory.
func Validate(bank domain.QuestionBank) error {
	return check(bank.Key(), toFile(bank))
}

// Encode renders a bank in the stored layout.
func Encode(bank domain.QuestionBank) ([]byte, error) {
	return json.MarshalIndent(toFile(bank), "", "  ")
}

func check(key domain.BankKey, raw fileBank) error {
	if raw.Questions == nil {
		return fmt.Errorf("bank %s: missing questions: %w", key, domain.ErrCorrupt)
	}
	if len(raw.Questions) == 0 {
		return fmt.Errorf("bank %s: %w", key, domain.ErrEmpty)
	}
	if err := validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("bank %s: %w: %s", key, domain.ErrCorrupt, describe(verrs))
		}
		return fmt.Errorf("bank %s: %w: %v", key, domain.ErrCorrupt, err)
	}
	for i, q := range raw.Questions {
		if idx := *q.CorrectAnswer; idx < 0 || idx >= len(q.Options) {
			return fmt.Errorf("bank %s: question %d: index %d of %d options: %w", key, i+1, idx, len(q.Options), domain.ErrIntegrityViolation)
		}
	}
	return nil
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func toFile(bank domain.QuestionBank) fileBank {
	raw := fileBank{
		Category:    bank.Category,
		Description: bank.Description,
		CreatedBy:   bank.CreatedBy,
		Questions:   make([]fileQuestion, 0, len(bank.Questions)),
	}
	if bank.Questions == nil {
		raw.Questions = nil
	}
	for _, q := range bank.Questions {
		idx := q.CorrectIndex
		raw.Questions = append(raw.Questions, fileQuestion{
			Question:      q.Prompt,
			Options:       q.Options,
			CorrectAnswer: &idx,
		})
	}
	return raw
}

// PadOptions fills a question's options up to four with "Option N" placeholders.
func PadOptions(options []string) []string {
	out := make([]string, len(options), max(len(options), OptionsPerQuestion))
	copy(out, options)
	for len(out) < OptionsPerQuestion {
		out = append(out, fmt.Sprintf("Option %d", len(out)+1))
	}
	return out
}

// SafeName reduces a user supplied quiz name to a file-system friendly id fragment.
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.TrimSpace(b.String())
	return strings.ToLower(strings.ReplaceAll(safe, " ", "_"))
}

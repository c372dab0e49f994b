package schema

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MBTITypes is the closed set of accepted four-letter type codes.
var MBTITypes = map[string]struct{}{
	"ISTJ": {}, "ISFJ": {}, "INFJ": {}, "INTJ": {},
	"ISTP": {}, "ISFP": {}, "INFP": {}, "INTP": {},
	"ESTP": {}, "ESFP": {}, "ENFP": {}, "ENTP": {},
	"ESTJ": {}, "ESFJ": {}, "ENFJ": {}, "ENTJ": {},
}

// TagVocabulary is the closed set of accepted matching-tag names.
var TagVocabulary = map[string]struct{}{
	"Optimistic Dystopia":     {},
	"Identity Quest":          {},
	"Lo-Fi Epic":              {},
	"Solarpunk Saga":          {},
	"Existential Laugh":       {},
	"Third Culture Narrative": {},
	"Micro Revolution":        {},
	"Everyday Magic":          {},
	"Existential Grind":       {},
	"Accidental Wholesome":    {},
	"Imperfect Unions":        {},
	"Analog Heartbeats":       {},
	"Legacy Reckoning":        {},
	"Genre Autopsy":           {},
	"Retro Immersion":         {},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for empty tag names.
	_ = v.RegisterValidation("mbti", func(fl validator.FieldLevel) bool {
		_, ok := MBTITypes[strings.ToUpper(fl.Field().String())]
		return ok
	})
	_ = v.RegisterValidation("tagvocab", func(fl validator.FieldLevel) bool {
		_, ok := TagVocabulary[fl.Field().String()]
		return ok
	})
	_ = v.RegisterValidation("year4", func(fl validator.FieldLevel) bool {
		return IsFourDigitYear(fl.Field().String())
	})
	return v
}

// IsFourDigitYear reports whether s is exactly four ASCII digits.
func IsFourDigitYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidateRecord checks a full movie record against the schema invariants.
func ValidateRecord(record *MovieRecord) error {
	if record == nil {
		return fmt.Errorf("validate record: record is nil")
	}
	if err := validate.Struct(record); err != nil {
		return fmt.Errorf("validate record %q: %w", record.MovieTitle, err)
	}
	return nil
}

// ValidateBigFive checks a candidate profile without attaching it to a record.
func ValidateBigFive(profile *BigFiveProfile) error {
	if profile == nil {
		return fmt.Errorf("validate big five: profile is nil")
	}
	if err := validate.Struct(profile); err != nil {
		return fmt.Errorf("validate big five: %w", err)
	}
	return nil
}

// ValidateTypeProfile checks and uppercases a candidate type profile.
func ValidateTypeProfile(profile *TypeProfile) error {
	if profile == nil {
		return fmt.Errorf("validate type profile: profile is nil")
	}
	profile.Type = strings.ToUpper(strings.TrimSpace(profile.Type))
	if err := validate.Struct(profile); err != nil {
		return fmt.Errorf("validate type profile: %w", err)
	}
	return nil
}

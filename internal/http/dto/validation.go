package dto

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cesargomez89/shelfwise/internal/community"
	"github.com/cesargomez89/shelfwise/internal/constants"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func validateSubjectID(subjectID string) []ValidationError {
	var errs []ValidationError
	switch {
	case subjectID == "":
		errs = append(errs, ValidationError{Field: "subject_id", Message: "is required"})
	case !community.ValidSubjectID(subjectID):
		errs = append(errs, ValidationError{Field: "subject_id", Message: "must be numeric"})
	}
	return errs
}

func validateAuthors(authors []string) []ValidationError {
	var errs []ValidationError
	for i, name := range authors {
		if utf8.RuneCountInString(name) > constants.MaxSuggestionName {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("authors[%d]", i),
				Message: fmt.Sprintf("must be at most %d characters", constants.MaxSuggestionName),
			})
		}
	}
	return errs
}

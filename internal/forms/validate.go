package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/egresados-admin/internal/schemas"
	"github.com/jonathan/egresados-admin/internal/types"
	rootschemas "github.com/jonathan/egresados-admin/schemas"
)

// Problem is one reason a draft cannot be saved.
type Problem struct {
	Field   string
	Message string
}

// ValidationError lists every problem found in a draft.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Field, p.Message))
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Validate checks the draft before it is saved: a name and at least one question
// with a prompt; multiple-choice questions need non-blank, unique options and text
// questions carry none.
func (d *Draft) Validate() error {
	dto := d.DTO()
	var problems []Problem

	if err := newValidator().Struct(dto); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate form: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, Problem{Field: fieldPath(fe), Message: tagMessage(fe.Tag())})
		}
	}

	for i, q := range dto.Questions {
		problems = append(problems, optionProblems(i, q)...)
	}

	if len(problems) == 0 {
		body, err := json.Marshal(dto)
		if err != nil {
			return fmt.Errorf("failed to encode form: %w", err)
		}
		var verr *schemas.ValidationError
		if err := schemas.Default().Validate(rootschemas.Form, body); errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				problems = append(problems, Problem{Field: fe.Field, Message: fe.Message})
			}
		} else if err != nil {
			return err
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func optionProblems(i int, q types.QuestionDTO) []Problem {
	field := fmt.Sprintf("questions[%d].possibleAnswers", i)
	if q.Type != types.QuestionMultipleChoice {
		if len(q.PossibleAnswers) > 0 {
			return []Problem{{Field: field, Message: "only multiple-choice questions have options"}}
		}
		return nil
	}
	if len(q.PossibleAnswers) == 0 {
		return []Problem{{Field: field, Message: "add at least one option"}}
	}

	var problems []Problem
	seen := make(map[string]int, len(q.PossibleAnswers))
	for o, opt := range q.PossibleAnswers {
		key := strings.ToLower(strings.TrimSpace(opt))
		if key == "" {
			problems = append(problems, Problem{Field: fmt.Sprintf("%s[%d]", field, o), Message: "option is blank"})
			continue
		}
		if first, dup := seen[key]; dup {
			problems = append(problems, Problem{
				Field:   fmt.Sprintf("%s[%d]", field, o),
				Message: fmt.Sprintf("duplicates option %d", first+1),
			})
			continue
		}
		seen[key] = o
	}
	return problems
}

// fieldPath drops the struct name from the namespace, leaving the JSON path.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func newValidator() *validator.Validate {
	v := types.NewValidator()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "min":
		return "needs at least one question"
	case "oneof":
		return "must be TEXT or MULTIPLE_CHOICE"
	default:
		return fmt.Sprintf("failed %s check", tag)
	}
}

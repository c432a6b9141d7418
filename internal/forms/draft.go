// Package forms builds new survey forms and summarizes collected answers.
package forms

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jonathan/egresados-admin/internal/types"
)

var (
	// ErrNoSuchQuestion is returned for a question index outside the draft.
	ErrNoSuchQuestion = errors.New("no such question")
	// ErrNoSuchOption is returned for an option index outside the question.
	ErrNoSuchOption = errors.New("no such option")
	// ErrFirstOption is returned when removing the first option of a question.
	ErrFirstOption = errors.New("the first option cannot be removed")
	// ErrNotMultipleChoice is returned for option edits on a TEXT question.
	ErrNotMultipleChoice = errors.New("question is not multiple choice")
	// ErrLastQuestion is returned when removing the only question.
	ErrLastQuestion = errors.New("a form needs at least one question")
)

// Draft is a form being edited in the builder. It starts with one empty TEXT question.
type Draft struct {
	form types.FormDTO
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{form: types.FormDTO{
		Questions:            []types.QuestionDTO{{Type: types.QuestionText}},
		AnswersCollectedFrom: []string{},
	}}
}

// Clone returns an independent copy of d.
func (d *Draft) Clone() *Draft {
	return &Draft{form: d.DTO()}
}

// Name returns the form name.
func (d *Draft) Name() string { return d.form.Name }

// Description returns the form description.
func (d *Draft) Description() string { return d.form.Description }

// Published reports whether the form is published when saved.
func (d *Draft) Published() bool { return d.form.Published }

// Questions returns a copy of the draft's questions.
func (d *Draft) Questions() []types.QuestionDTO {
	out := make([]types.QuestionDTO, len(d.form.Questions))
	for i, q := range d.form.Questions {
		q.PossibleAnswers = slices.Clone(q.PossibleAnswers)
		out[i] = q
	}
	return out
}

// SetName sets the form name.
func (d *Draft) SetName(name string) { d.form.Name = name }

// SetDescription sets the form description.
func (d *Draft) SetDescription(desc string) { d.form.Description = desc }

// TogglePublished flips the "Publish on Save?" choice.
func (d *Draft) TogglePublished() { d.form.Published = !d.form.Published }

// AddQuestion appends an empty TEXT question.
func (d *Draft) AddQuestion() {
	d.form.Questions = append(d.form.Questions, types.QuestionDTO{Type: types.QuestionText})
}

// RemoveQuestion deletes question i; the last remaining question cannot be removed.
func (d *Draft) RemoveQuestion(i int) error {
	if _, err := d.question(i); err != nil {
		return err
	}
	if len(d.form.Questions) == 1 {
		return ErrLastQuestion
	}
	d.form.Questions = slices.Delete(d.form.Questions, i, i+1)
	return nil
}

// SetQuestionText sets the prompt of question i.
func (d *Draft) SetQuestionText(i int, text string) error {
	q, err := d.question(i)
	if err != nil {
		return err
	}
	q.Question = text
	return nil
}

// SetQuestionType changes the type of question i. Switching to MULTIPLE_CHOICE
// seeds one empty option; switching to TEXT drops the options.
func (d *Draft) SetQuestionType(i int, t types.QuestionType) error {
	q, err := d.question(i)
	if err != nil {
		return err
	}
	if !t.Valid() {
		return fmt.Errorf("question %d: unknown type %q", i+1, t)
	}
	if q.Type == t {
		return nil
	}
	q.Type = t
	if t == types.QuestionMultipleChoice {
		q.PossibleAnswers = []string{""}
	} else {
		q.PossibleAnswers = nil
	}
	return nil
}

// AddOption appends an empty option to multiple-choice question i.
func (d *Draft) AddOption(i int) error {
	q, err := d.choiceQuestion(i)
	if err != nil {
		return err
	}
	q.PossibleAnswers = append(q.PossibleAnswers, "")
	return nil
}

// SetOption sets option o of question i.
func (d *Draft) SetOption(i, o int, value string) error {
	q, err := d.choiceQuestion(i)
	if err != nil {
		return err
	}
	if o < 0 || o >= len(q.PossibleAnswers) {
		return fmt.Errorf("question %d option %d: %w", i+1, o+1, ErrNoSuchOption)
	}
	q.PossibleAnswers[o] = value
	return nil
}

// RemoveOption deletes option o of question i. The first option stays so a
// multiple-choice question always has one.
func (d *Draft) RemoveOption(i, o int) error {
	q, err := d.choiceQuestion(i)
	if err != nil {
		return err
	}
	if o < 0 || o >= len(q.PossibleAnswers) {
		return fmt.Errorf("question %d option %d: %w", i+1, o+1, ErrNoSuchOption)
	}
	if o == 0 {
		return ErrFirstOption
	}
	q.PossibleAnswers = slices.Delete(q.PossibleAnswers, o, o+1)
	return nil
}

// DTO returns the payload for POST /form/save.
func (d *Draft) DTO() types.FormDTO {
	dto := d.form
	dto.Questions = d.Questions()
	if dto.AnswersCollectedFrom == nil {
		dto.AnswersCollectedFrom = []string{}
	}
	return dto
}

func (d *Draft) question(i int) (*types.QuestionDTO, error) {
	if i < 0 || i >= len(d.form.Questions) {
		return nil, fmt.Errorf("question %d: %w", i+1, ErrNoSuchQuestion)
	}
	return &d.form.Questions[i], nil
}

func (d *Draft) choiceQuestion(i int) (*types.QuestionDTO, error) {
	q, err := d.question(i)
	if err != nil {
		return nil, err
	}
	if q.Type != types.QuestionMultipleChoice {
		return nil, fmt.Errorf("question %d: %w", i+1, ErrNotMultipleChoice)
	}
	return q, nil
}

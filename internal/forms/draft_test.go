package forms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/egresados-admin/internal/api"
	"github.com/jonathan/egresados-admin/internal/notify"
	"github.com/jonathan/egresados-admin/internal/types"
)

func TestNewDraft(t *testing.T) {
	d := NewDraft()
	qs := d.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, types.QuestionText, qs[0].Type)
	assert.Nil(t, qs[0].PossibleAnswers)
	assert.False(t, d.Published())
	assert.NotNil(t, d.DTO().AnswersCollectedFrom)
}

func TestSetQuestionType(t *testing.T) {
	d := NewDraft()

	require.NoError(t, d.SetQuestionType(0, types.QuestionMultipleChoice))
	assert.Equal(t, []string{""}, d.Questions()[0].PossibleAnswers)

	require.NoError(t, d.SetOption(0, 0, "Sí"))
	require.NoError(t, d.SetQuestionType(0, types.QuestionMultipleChoice))
	assert.Equal(t, []string{"Sí"}, d.Questions()[0].PossibleAnswers, "same type keeps options")

	require.NoError(t, d.SetQuestionType(0, types.QuestionText))
	assert.Nil(t, d.Questions()[0].PossibleAnswers)

	assert.Error(t, d.SetQuestionType(0, "RATING"))
	assert.ErrorIs(t, d.SetQuestionType(3, types.QuestionText), ErrNoSuchQuestion)
}

func TestOptions(t *testing.T) {
	d := NewDraft()
	assert.ErrorIs(t, d.AddOption(0), ErrNotMultipleChoice)

	require.NoError(t, d.SetQuestionType(0, types.QuestionMultipleChoice))
	require.NoError(t, d.AddOption(0))
	require.NoError(t, d.AddOption(0))
	require.NoError(t, d.SetOption(0, 0, "Sí"))
	require.NoError(t, d.SetOption(0, 1, "No"))
	require.NoError(t, d.SetOption(0, 2, "Tal vez"))

	require.NoError(t, d.RemoveOption(0, 1))
	assert.Equal(t, []string{"Sí", "Tal vez"}, d.Questions()[0].PossibleAnswers)

	assert.ErrorIs(t, d.RemoveOption(0, 0), ErrFirstOption)
	assert.ErrorIs(t, d.RemoveOption(0, 5), ErrNoSuchOption)
	assert.ErrorIs(t, d.SetOption(0, -1, "x"), ErrNoSuchOption)
}

func TestQuestions_ReturnsCopy(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.SetQuestionType(0, types.QuestionMultipleChoice))
	qs := d.Questions()
	qs[0].PossibleAnswers[0] = "mutated"
	qs[0].Question = "mutated"

	assert.Equal(t, []string{""}, d.Questions()[0].PossibleAnswers)
	assert.Empty(t, d.Questions()[0].Question)
}

func TestClone_IsIndependent(t *testing.T) {
	d := NewDraft()
	d.SetName("Encuesta")
	require.NoError(t, d.SetQuestionType(0, types.QuestionMultipleChoice))
	require.NoError(t, d.SetOption(0, 0, "Sí"))

	c := d.Clone()
	assert.Equal(t, d.DTO(), c.DTO())

	d.SetName("Otra")
	require.NoError(t, d.SetOption(0, 0, "No"))
	d.AddQuestion()
	assert.Equal(t, "Encuesta", c.Name())
	require.Len(t, c.Questions(), 1)
	assert.Equal(t, []string{"Sí"}, c.Questions()[0].PossibleAnswers)
}

func TestAddRemoveQuestion(t *testing.T) {
	d := NewDraft()
	d.AddQuestion()
	require.NoError(t, d.SetQuestionText(1, "Segunda"))
	require.NoError(t, d.RemoveQuestion(0))
	require.Len(t, d.Questions(), 1)
	assert.Equal(t, "Segunda", d.Questions()[0].Question)
	assert.ErrorIs(t, d.RemoveQuestion(0), ErrLastQuestion)
	assert.ErrorIs(t, d.SetQuestionText(4, "x"), ErrNoSuchQuestion)
}

func TestTogglePublished(t *testing.T) {
	d := NewDraft()
	d.TogglePublished()
	assert.True(t, d.DTO().Published)
	d.TogglePublished()
	assert.False(t, d.DTO().Published)
}

func validDraft(t *testing.T) *Draft {
	t.Helper()
	d := NewDraft()
	d.SetName("Empleabilidad 2024")
	d.SetDescription("Encuesta anual")
	require.NoError(t, d.SetQuestionText(0, "¿Dónde trabajas?"))
	d.AddQuestion()
	require.NoError(t, d.SetQuestionText(1, "¿Trabajas en tu área?"))
	require.NoError(t, d.SetQuestionType(1, types.QuestionMultipleChoice))
	require.NoError(t, d.SetOption(1, 0, "Sí"))
	require.NoError(t, d.AddOption(1))
	require.NoError(t, d.SetOption(1, 1, "No"))
	return d
}

func problemsOf(t *testing.T, err error) []Problem {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Problems
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validDraft(t).Validate())

	t.Run("missing name and prompt", func(t *testing.T) {
		problems := problemsOf(t, NewDraft().Validate())
		var fields []string
		for _, p := range problems {
			fields = append(fields, p.Field)
		}
		assert.Contains(t, fields, "name")
		assert.Contains(t, fields, "questions[0].question")
	})

	t.Run("blank option", func(t *testing.T) {
		d := validDraft(t)
		require.NoError(t, d.AddOption(1))
		problems := problemsOf(t, d.Validate())
		require.Len(t, problems, 1)
		assert.Equal(t, "questions[1].possibleAnswers[2]", problems[0].Field)
		assert.Equal(t, "option is blank", problems[0].Message)
	})

	t.Run("duplicate option", func(t *testing.T) {
		d := validDraft(t)
		require.NoError(t, d.AddOption(1))
		require.NoError(t, d.SetOption(1, 2, " sí "))
		problems := problemsOf(t, d.Validate())
		require.Len(t, problems, 1)
		assert.Equal(t, "duplicates option 1", problems[0].Message)
	})
}

func TestValidate_DTOMatchesSchema(t *testing.T) {
	dto := validDraft(t).DTO()
	assert.Nil(t, dto.Questions[0].PossibleAnswers)
	assert.Equal(t, []string{"Sí", "No"}, dto.Questions[1].PossibleAnswers)
	assert.Equal(t, []string{}, dto.AnswersCollectedFrom)
}

type fakeSaver struct {
	calls int
	got   types.FormDTO
	err   error
}

func (s *fakeSaver) SaveForm(_ context.Context, f types.FormDTO) error {
	s.calls++
	s.got = f
	return s.err
}

func TestSave(t *testing.T) {
	saver := &fakeSaver{}
	n, saved := Save(context.Background(), saver, validDraft(t))

	assert.True(t, saved)
	assert.Equal(t, notify.TitleSuccess, n.Title)
	assert.Equal(t, MessageSaved, n.Description)
	assert.Equal(t, "Empleabilidad 2024", saver.got.Name)
}

func TestSave_InvalidDraftSendsNothing(t *testing.T) {
	saver := &fakeSaver{}
	n, saved := Save(context.Background(), saver, NewDraft())

	assert.False(t, saved)
	assert.True(t, n.IsError())
	assert.Equal(t, notify.TitleValidation, n.Title)
	assert.Zero(t, saver.calls)
}

func TestSave_APIError(t *testing.T) {
	saver := &fakeSaver{err: &api.EnvelopeError{Endpoint: api.EndpointFormSave, Message: "Form name taken"}}
	n, saved := Save(context.Background(), saver, validDraft(t))

	assert.False(t, saved)
	assert.Equal(t, notify.TitleFailure, n.Title)
	assert.Equal(t, "Form name taken", n.Description)
	assert.Equal(t, notify.TryAgain, n.Action)
}

func TestSave_TransportError(t *testing.T) {
	saver := &fakeSaver{err: &api.TransportError{Op: "POST", URL: "u", Message: "HTTP request failed", Cause: errors.New("refused")}}
	n, _ := Save(context.Background(), saver, validDraft(t))
	assert.Equal(t, "Submission failed - HTTP request failed", n.Description)
}

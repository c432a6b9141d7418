package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/egresados-admin/internal/types"
)

func TestSummarize(t *testing.T) {
	form := types.Form{
		ID:   "F1",
		Name: "Seguimiento",
		Questions: []types.Question{
			{
				Question: "¿Dónde trabajas?",
				Type:     types.QuestionText,
				Answers:  []types.Answer{{Text: "UAM"}, {Text: "Claro"}},
			},
			{
				Question:        "¿Trabajas en tu área?",
				Type:            types.QuestionMultipleChoice,
				PossibleAnswers: []string{"Sí", "No"},
				Answers:         []types.Answer{{Text: "Sí"}, {Text: "Sí"}, {Text: "No"}, {Text: "Quizás"}},
			},
		},
	}

	s := Summarize(form)
	require.Len(t, s, 2)

	assert.Equal(t, 1, s[0].Number)
	assert.Equal(t, 2, s[0].Answers)
	assert.Empty(t, s[0].Options)

	assert.Equal(t, 4, s[1].Answers)
	assert.Equal(t, []OptionCount{{"Sí", 2}, {"No", 1}}, s[1].Options)
	assert.Equal(t, 1, s[1].Other)
}

package forms

import "github.com/jonathan/egresados-admin/internal/types"

// OptionCount is how many answers picked one option.
type OptionCount struct {
	Option string
	Count  int
}

// QuestionSummary condenses the answers to one question.
type QuestionSummary struct {
	Number   int
	Question string
	Type     types.QuestionType
	Answers  int
	// Options tallies multiple-choice answers in option order; answers matching
	// no option are counted under Other.
	Options []OptionCount
	Other   int
}

// Summarize tallies the answers of every question of f.
func Summarize(f types.Form) []QuestionSummary {
	out := make([]QuestionSummary, 0, len(f.Questions))
	for i, q := range f.Questions {
		s := QuestionSummary{Number: i + 1, Question: q.Question, Type: q.Type, Answers: len(q.Answers)}
		if q.Type == types.QuestionMultipleChoice {
			idx := make(map[string]int, len(q.PossibleAnswers))
			for _, opt := range q.PossibleAnswers {
				if _, dup := idx[opt]; !dup {
					idx[opt] = len(s.Options)
					s.Options = append(s.Options, OptionCount{Option: opt})
				}
			}
			for _, a := range q.Answers {
				if j, ok := idx[a.Text]; ok {
					s.Options[j].Count++
				} else {
					s.Other++
				}
			}
		}
		out = append(out, s)
	}
	return out
}

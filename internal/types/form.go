package types

// QuestionType tags how a question is answered.
type QuestionType string

// Question types accepted by the API.
const (
	QuestionText           QuestionType = "TEXT"
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	return t == QuestionText || t == QuestionMultipleChoice
}

// Answer is one collected answer to a question.
type Answer struct {
	Text           string  `json:"text"`
	AnsweredByID   string  `json:"answeredById"`
	AnsweredByName *string `json:"answeredByName"`
}

// Respondent returns the respondent's display name, falling back to the identifier.
func (a Answer) Respondent() string {
	if a.AnsweredByName != nil && *a.AnsweredByName != "" {
		return *a.AnsweredByName
	}
	if a.AnsweredByID != "" {
		return a.AnsweredByID
	}
	return "Anonymous"
}

// Question is a form question with its collected answers.
type Question struct {
	ID              string       `json:"id"`
	Question        string       `json:"question"`
	Type            QuestionType `json:"type"`
	PossibleAnswers []string     `json:"possibleAnswers"`
	Answers         []Answer     `json:"answers"`
}

// Form is a survey form as returned by GET /form/{id}.
type Form struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Description          *string    `json:"description"`
	Questions            []Question `json:"questions"`
	AnswersCollectedFrom []string   `json:"answersCollectedFrom"`
	Published            bool       `json:"published"`
}

// DescriptionText returns the description or an empty string.
func (f Form) DescriptionText() string {
	if f.Description == nil {
		return ""
	}
	return *f.Description
}

// RawForm is the list-endpoint shape of a form.
type RawForm struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	AnswersCollectedFrom []string `json:"answersCollectedFrom"`
	Published            bool     `json:"published"`
}

// FormRow is the projection of a RawForm shown in the forms table.
type FormRow struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	NumberOfAnswers int    `json:"numberOfAnswers"`
	Published       bool   `json:"published"`
}

// ProjectForms maps every raw form into its table projection.
func ProjectForms(raw []RawForm) []FormRow {
	rows := make([]FormRow, 0, len(raw))
	for _, f := range raw {
		rows = append(rows, FormRow{
			ID:              f.ID,
			Name:            f.Name,
			NumberOfAnswers: len(f.AnswersCollectedFrom),
			Published:       f.Published,
		})
	}
	return rows
}

// QuestionDTO is a question as submitted to POST /form/save.
type QuestionDTO struct {
	Question        string       `json:"question" validate:"required"`
	Type            QuestionType `json:"type" validate:"required,oneof=TEXT MULTIPLE_CHOICE"`
	PossibleAnswers []string     `json:"possibleAnswers"`
}

// FormDTO is a new form as submitted to POST /form/save.
type FormDTO struct {
	Name                 string        `json:"name" validate:"required"`
	Description          string        `json:"description"`
	Questions            []QuestionDTO `json:"questions" validate:"required,min=1,dive"`
	Published            bool          `json:"published"`
	AnswersCollectedFrom []string      `json:"answersCollectedFrom"`
}

package types

import "time"

// Job is a position held by an egresado.
type Job struct {
	Title     string  `json:"posicionActual"`
	StartDate string  `json:"fechaInicio"`
	EndDate   *string `json:"fechaTerminacion"`
}

// EndsBeforeStart reports whether the job has an end date that precedes its start date.
// Dates that cannot be parsed are not flagged.
func (j Job) EndsBeforeStart() bool {
	if j.EndDate == nil || *j.EndDate == "" {
		return false
	}
	start, ok := parseAPIDate(j.StartDate)
	if !ok {
		return false
	}
	end, ok := parseAPIDate(*j.EndDate)
	if !ok {
		return false
	}
	return end.Before(start)
}

// RawEgresado is an alumnus record exactly as the API returns it.
type RawEgresado struct {
	ID             string   `json:"id"`
	FullName       string   `json:"nombreCompleto"`
	LoginEmail     string   `json:"logInEmail"`
	GraduationDate string   `json:"fechaGraduacion"`
	BirthDate      string   `json:"fechaNacimiento"`
	PhoneNumbers   []string `json:"contactosTelefonicos"`
	Emails         []string `json:"correos"`
	Approved       bool     `json:"aprobado"`
	CIF            string   `json:"cif"`
	CurrentJob     *Job     `json:"cargoActual"`
	Jobs           []Job    `json:"trabajos"`
	ResumeLink     string   `json:"resumeLink"`
}

// EgresadoRow is the projection of a RawEgresado shown in the egresados table.
type EgresadoRow struct {
	ID                string `json:"id"`
	FullName          string `json:"fullName"`
	Email             string `json:"email"`
	GraduationDate    string `json:"graduationDate"`
	PhoneNumber       string `json:"phoneNumber"`
	CurrentOccupation string `json:"currentOccupation"`
	Approved          bool   `json:"aprobado"`
}

// NotAvailable is displayed in place of missing contact data.
const NotAvailable = "N/A"

// ProjectEgresado maps a raw record field-for-field into its table projection.
func ProjectEgresado(e RawEgresado) EgresadoRow {
	phone := NotAvailable
	if len(e.PhoneNumbers) > 0 && e.PhoneNumbers[0] != "" {
		phone = e.PhoneNumbers[0]
	}
	occupation := ""
	if e.CurrentJob != nil {
		occupation = e.CurrentJob.Title
	}
	return EgresadoRow{
		ID:                e.ID,
		FullName:          e.FullName,
		Email:             e.LoginEmail,
		GraduationDate:    e.GraduationDate,
		PhoneNumber:       phone,
		CurrentOccupation: occupation,
		Approved:          e.Approved,
	}
}

// ProjectEgresados maps every raw record; the result has the same length and order.
func ProjectEgresados(raw []RawEgresado) []EgresadoRow {
	rows := make([]EgresadoRow, 0, len(raw))
	for _, e := range raw {
		rows = append(rows, ProjectEgresado(e))
	}
	return rows
}

var apiDateLayouts = []string{time.RFC3339, time.DateOnly, "2006-01-02T15:04:05"}

func parseAPIDate(s string) (time.Time, bool) {
	for _, layout := range apiDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

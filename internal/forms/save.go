package forms

import (
	"context"
	"errors"

	"github.com/jonathan/egresados-admin/internal/api"
	"github.com/jonathan/egresados-admin/internal/notify"
	"github.com/jonathan/egresados-admin/internal/types"
)

// MessageSaved is shown after a form is stored.
const MessageSaved = "Managed to save form"

// Saver stores a new form.
type Saver interface {
	SaveForm(ctx context.Context, form types.FormDTO) error
}

// Save validates d and submits it. The returned notification is the single
// message to show; saved reports whether the API accepted the form.
func Save(ctx context.Context, s Saver, d *Draft) (n notify.Notification, saved bool) {
	if err := d.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && len(verr.Problems) > 0 {
			p := verr.Problems[0]
			return notify.Invalid(notify.TitleValidation, p.Field+" "+p.Message), false
		}
		return notify.Failure(err.Error()), false
	}

	if err := s.SaveForm(ctx, d.DTO()); err != nil {
		return notify.Failure(api.UserMessage(err)), false
	}
	return notify.Success(notify.TitleSuccess, MessageSaved), true
}

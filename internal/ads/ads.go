// Package ads manages advertisement placements shown by the alumni portal.
package ads

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// Placement is where an ad is shown.
type Placement string

// Known placements.
const (
	PlacementHomepage  Placement = "HOMEPAGE"
	PlacementDashboard Placement = "DASHBOARD"
)

// Placements lists the known placements in display order.
var Placements = []Placement{PlacementHomepage, PlacementDashboard}

// Format is how an ad is rendered.
type Format string

// Known formats.
const (
	FormatText   Format = "TEXT"
	FormatImage  Format = "IMAGE"
	FormatBanner Format = "BANNER"
)

// Formats lists the known formats.
var Formats = []Format{FormatText, FormatImage, FormatBanner}

// NeedsMedia reports whether ads of this format carry an image.
func (f Format) NeedsMedia() bool {
	return f == FormatImage || f == FormatBanner
}

// Advertisement is one ad.
type Advertisement struct {
	ID          string
	Name        string
	Placements  []Placement
	Format      Format
	Content     string
	MediaType   string
	Media       []byte
	RedirectURL string
	CreatedAt   time.Time
}

// ErrNotFound is returned by stores for an unknown ad.
var ErrNotFound = errors.New("advertisement not found")

// ValidationError is an invalid field of an ad.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var sanitizer = bluemonday.UGCPolicy()

// Validate checks a.
func (a *Advertisement) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if len(a.Placements) == 0 {
		return &ValidationError{Field: "placement", Message: "choose at least one placement"}
	}
	for _, p := range a.Placements {
		if !slices.Contains(Placements, p) {
			return &ValidationError{Field: "placement", Message: fmt.Sprintf("unknown placement %q", p)}
		}
	}
	if !slices.Contains(Formats, a.Format) {
		return &ValidationError{Field: "format", Message: fmt.Sprintf("unknown format %q", a.Format)}
	}
	if a.Format == FormatText && strings.TrimSpace(a.Content) == "" {
		return &ValidationError{Field: "content", Message: "text ads need content"}
	}
	if a.Format.NeedsMedia() && len(a.Media) == 0 {
		return &ValidationError{Field: "media", Message: "image and banner ads need a file"}
	}
	u, err := url.Parse(a.RedirectURL)
	if a.RedirectURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "redirectUrl", Message: "must be an absolute http(s) URL"}
	}
	return nil
}

// Prepare sanitizes the text content of a, validates the result and readies it
// for storage: placements are de-duplicated, and an ID and creation time are
// assigned when absent. Content that sanitizes to nothing counts as missing.
func Prepare(a Advertisement, now time.Time) (Advertisement, error) {
	a.Content = sanitizer.Sanitize(a.Content)
	if err := a.Validate(); err != nil {
		return Advertisement{}, err
	}

	a.Name = strings.TrimSpace(a.Name)
	a.Placements = slices.Compact(sortedPlacements(a.Placements))
	if !a.Format.NeedsMedia() {
		a.Media = nil
		a.MediaType = ""
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now.UTC()
	}
	return a, nil
}

func sortedPlacements(ps []Placement) []Placement {
	out := slices.Clone(ps)
	slices.SortFunc(out, func(a, b Placement) int {
		return slices.Index(Placements, a) - slices.Index(Placements, b)
	})
	return out
}

package models

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Entry-point validation. The store itself accepts whatever it is given;
// HTTP, MCP and CLI input passes through these first.

var (
	categoryRule = validation.In(CategoryBooks, CategoryShows, CategoryPodcasts).Error("must be one of books, shows, podcasts")
	statusRule   = validation.In(StatusTodo, StatusProgress, StatusFinished).Error("must be one of todo, progress, finished")
	progressRule = []validation.Rule{validation.Min(0), validation.Max(100)}
	themeRule    = validation.In(ThemeLight, ThemeDark).Error("must be one of light, dark")
	glassRule    = validation.In(GlassDefault, GlassHigh, GlassLow).Error("must be one of default, high, low")
)

var errBlank = errors.New("cannot be blank")

func notBlank(v any) error {
	iv, _ := validation.Indirect(v)
	s, _ := iv.(string)
	if strings.TrimSpace(s) == "" {
		return errBlank
	}
	return nil
}

// Validate checks a new item before it is added.
func (n NewItem) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Title, validation.By(notBlank)),
		validation.Field(&n.Category, validation.Required, categoryRule),
		validation.Field(&n.Status, validation.Required, statusRule),
		validation.Field(&n.Progress, progressRule...),
	)
}

// Normalized trims the title and drops progress unless the item is in progress.
func (n NewItem) Normalized() NewItem {
	n.Title = strings.TrimSpace(n.Title)
	if n.Status != StatusProgress {
		n.Progress = nil
	}
	return n
}

// Validate checks the fields present in the patch. Required fields may not be
// cleared; optional ones may.
func (p ItemPatch) Validate() error {
	return validation.Errors{
		"title":    validation.Validate(p.Title.Value, validation.When(p.Title.Set, validation.NotNil, validation.By(notBlank))),
		"category": validation.Validate(p.Category.Value, validation.When(p.Category.Set, validation.NotNil, validation.Required, categoryRule)),
		"status":   validation.Validate(p.Status.Value, validation.When(p.Status.Set, validation.NotNil, validation.Required, statusRule)),
		"progress": validation.Validate(p.Progress.Value, progressRule...),
	}.Filter()
}

// Validate checks every preference value.
func (p Preferences) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.CurrentTheme, validation.Required, themeRule),
		validation.Field(&p.GlassIntensity, validation.Required, glassRule),
		validation.Field(&p.AccentColor, validation.Required, validation.Length(1, 64)),
	)
}

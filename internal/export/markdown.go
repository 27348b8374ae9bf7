// Package export writes the collection as Markdown notes with YAML frontmatter,
// one file per item under a directory per category.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/storage"
)

// Result summarizes one export run.
type Result struct {
	Written int
	Paths   []string
}

type frontmatter struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Category  string   `yaml:"category"`
	Status    string   `yaml:"status"`
	Progress  *int     `yaml:"progress,omitempty"`
	Mood      string   `yaml:"mood,omitempty"`
	Cover     string   `yaml:"cover,omitempty"`
	DateAdded string   `yaml:"date_added"`
	Tags      []string `yaml:"tags"`
}

// Render returns the Markdown note for one item.
func Render(item models.MediaItem) ([]byte, error) {
	fm := frontmatter{
		ID:        item.ID,
		Title:     item.Title,
		Category:  string(item.Category),
		Status:    string(item.Status),
		Progress:  item.Progress,
		DateAdded: item.DateAdded.UTC().Format(time.RFC3339),
		Tags:      []string{"shelf", string(item.Category)},
	}
	if item.Mood != nil {
		fm.Mood = *item.Mood
	}
	if item.CoverImage != nil {
		fm.Cover = *item.CoverImage
	}

	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("export: marshal frontmatter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n", item.Title)
	if item.Notes != nil && strings.TrimSpace(*item.Notes) != "" {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(*item.Notes))
	}
	return b.Bytes(), nil
}

// Markdown writes every item to <category>/<slug>.md below fs's root.
// Items whose titles slugify to the same name get the id appended.
func Markdown(fs *storage.FS, items []models.MediaItem) (Result, error) {
	var res Result
	used := make(map[string]bool, len(items))
	for _, item := range items {
		path := notePath(item, used)
		data, err := Render(item)
		if err != nil {
			return res, err
		}
		if err := fs.Write(path, data); err != nil {
			return res, fmt.Errorf("export: %s: %w", item.ID, err)
		}
		res.Written++
		res.Paths = append(res.Paths, path)
	}
	return res, nil
}

func notePath(item models.MediaItem, used map[string]bool) string {
	category := string(item.Category)
	if !item.Category.Valid() {
		category = "other"
	}
	name := Slug(item.Title)
	if name == "" {
		name = Slug(item.ID)
	}
	path := category + "/" + name + ".md"
	if used[path] {
		path = category + "/" + name + "-" + shortID(item.ID) + ".md"
	}
	used[path] = true
	return path
}

func shortID(id string) string {
	s := Slug(id)
	if len(s) > 8 {
		s = s[:8]
	}
	return s
}

// Slug lowercases s and keeps ASCII letters and digits, joining runs of
// anything else with a single '-'.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

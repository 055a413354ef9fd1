package usecase

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasttemplate"
)

const (
	placeholderStart = "{"
	placeholderEnd   = "}"
	shortIDLength    = 8
)

// TemplateData holds the values available to content templates.
type TemplateData struct {
	RunID    string
	Owner    string
	Repo     string
	Prefix   string
	Branch   string
	Base     string
	Revision string
	PRNumber int
	Time     time.Time
}

func (d TemplateData) shortID() string {
	id := strings.ReplaceAll(d.RunID, "-", "")
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

func (d TemplateData) lookup(tag string) (string, bool) {
	switch tag {
	case "run_id":
		return d.RunID, true
	case "short_id":
		return d.shortID(), true
	case "owner":
		return d.Owner, true
	case "repo":
		return d.Repo, true
	case "prefix":
		return d.Prefix, true
	case "branch":
		return d.Branch, true
	case "base":
		return d.Base, true
	case "revision":
		return d.Revision, true
	case "pr_number":
		return strconv.Itoa(d.PRNumber), true
	case "date":
		return d.Time.UTC().Format("20060102"), true
	case "timestamp":
		return d.Time.UTC().Format(time.RFC3339), true
	}
	return "", false
}

// RenderContentUseCase expands {placeholder} templates for branch names,
// commit messages and pull request text.
type RenderContentUseCase struct{}

// Execute renders tmpl. Unknown placeholders are an error.
func (uc *RenderContentUseCase) Execute(tmpl string, data TemplateData) (string, error) {
	t, err := fasttemplate.NewTemplate(tmpl, placeholderStart, placeholderEnd)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", tmpl, err)
	}
	out, err := t.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		value, ok := data.lookup(strings.TrimSpace(tag))
		if !ok {
			return 0, fmt.Errorf("unknown placeholder {%s}", tag)
		}
		return w.Write([]byte(value))
	})
	if err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", tmpl, err)
	}
	return out, nil
}

// BranchName renders the branch template and normalizes the result into a
// valid ref component.
func (uc *RenderContentUseCase) BranchName(tmpl string, data TemplateData) (string, error) {
	name, err := uc.Execute(tmpl, data)
	if err != nil {
		return "", err
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.', r == '/':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, name)
	name = strings.Trim(name, "/.")
	if name == "" {
		return "", fmt.Errorf("branch template %q rendered an empty name", tmpl)
	}
	return name, nil
}

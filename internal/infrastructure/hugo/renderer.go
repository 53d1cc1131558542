package hugo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"coinpress/internal/domain"
	"coinpress/internal/ports"
)

// frontMatter is the YAML block Hugo reads at the top of each article.
type frontMatter struct {
	Title     string    `yaml:"title"`
	Date      time.Time `yaml:"date"`
	Tags      []string  `yaml:"tags,omitempty"`
	Source    string    `yaml:"source,omitempty"`
	Author    string    `yaml:"author,omitempty"`
	Canonical string    `yaml:"canonicalURL,omitempty"`
	Draft     bool      `yaml:"draft"`
}

// Renderer writes Hugo-compatible markdown artifacts into the site's content
// directory.
type Renderer struct {
	contentDir string
}

var _ ports.Renderer = (*Renderer)(nil)

// NewRenderer points the renderer at the content directory; it is created on
// first render if absent.
func NewRenderer(contentDir string) *Renderer {
	return &Renderer{contentDir: contentDir}
}

// Render writes the article as <date>-<slug>.md and returns the filename.
// An existing file with the same name is not overwritten; the slug gets a
// numeric suffix instead, so reruns cannot clobber published artifacts.
func (r *Renderer) Render(article domain.Article) (string, error) {
	if article.Title == "" {
		return "", fmt.Errorf("render article: empty title")
	}
	if err := os.MkdirAll(r.contentDir, 0o755); err != nil {
		return "", fmt.Errorf("create content dir: %w", err)
	}

	fm := frontMatter{
		Title:     article.Title,
		Date:      article.PublishedAt,
		Tags:      article.Tags,
		Source:    "coinpress",
		Author:    article.Author,
		Canonical: article.SourceURL,
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n\n")
	buf.WriteString(article.Body)
	buf.WriteString("\n")

	filename := r.uniqueFilename(article)
	path := filepath.Join(r.contentDir, filename)
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return "", fmt.Errorf("write article %s: %w", filename, err)
	}

	return filename, nil
}

func (r *Renderer) uniqueFilename(article domain.Article) string {
	base := fmt.Sprintf("%s-%s", article.PublishedAt.Format("2006-01-02"), Slug(article.Title))
	filename := base + ".md"
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(r.contentDir, filename)); os.IsNotExist(err) {
			return filename
		}
		filename = fmt.Sprintf("%s-%d.md", base, i)
	}
}

// Slug lowercases the title and replaces every non-alphanumeric run with a
// single hyphen. Long titles are cut at 60 runes before slugging so
// filenames stay manageable.
func Slug(title string) string {
	runes := []rune(strings.ToLower(title))
	if len(runes) > 60 {
		runes = runes[:60]
	}

	var sb strings.Builder
	prevHyphen := true
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevHyphen = false
		} else if !prevHyphen {
			sb.WriteRune('-')
			prevHyphen = true
		}
	}

	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

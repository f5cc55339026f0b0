package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"spokesbot/internal/model"
	"spokesbot/internal/pkg/pdfextract"
)

// Loader reads the corpus from a directory of .txt and .pdf files. The file
// name is the document id; its label comes from the name rules. Files are
// loaded in sorted name order so document ids and index insertion order are
// stable across restarts.
type Loader struct {
	dir          string
	rules        []model.DocLabelRule
	defaultLabel model.Label
}

func NewLoader(dir string, rules []model.DocLabelRule, defaultLabel model.Label) *Loader {
	return &Loader{dir: dir, rules: rules, defaultLabel: defaultLabel}
}

// Load reads every supported file in the corpus directory. Unsupported
// extensions are skipped silently; unreadable files fail the whole load so a
// permissions problem never silently shrinks the corpus.
func (l *Loader) Load() ([]model.Document, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory %s failed: %w", l.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".pdf":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]model.Document, 0, len(names))
	for _, name := range names {
		text, err := l.readFile(name)
		if err != nil {
			return nil, err
		}
		docs = append(docs, model.Document{
			ID:      name,
			Section: model.SectionFromFileName(name),
			Label:   model.LabelForName(name, l.rules, l.defaultLabel),
			Text:    text,
		})
	}
	return docs, nil
}

func (l *Loader) readFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return "", fmt.Errorf("read corpus file %s failed: %w", name, err)
	}
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		text, err := pdfextract.ExtractText(data)
		if err != nil {
			return "", fmt.Errorf("extract %s failed: %w", name, err)
		}
		return text, nil
	}
	return string(data), nil
}

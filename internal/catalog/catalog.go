// Package catalog loads the static word catalog used by the naming exercise.
//
// The catalog is read once at startup from a YAML file, validated, and then
// shared as an immutable snapshot. Word ids are assigned 1..N in file order.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/validator"
)

// Public URL prefixes for media referenced by the catalog.
const (
	AudioURLPrefix = "/media/audio/"
	ImageURLPrefix = "/media/images/"
)

// ErrEmpty is returned when the catalog file holds no words.
var ErrEmpty = errors.New("catalog has no words")

// Word is one picture-naming card.
type Word struct {
	ID             int    `json:"id" yaml:"-"`
	Word           string `json:"word" yaml:"word" validate:"required,arabic"`
	WordAudio      string `json:"word_audio" yaml:"word_audio" validate:"required"`
	CueAudio       string `json:"cue_audio" yaml:"cue_audio" validate:"required"`
	WordHintAudio  string `json:"word_hint_audio" yaml:"word_hint_audio"`
	SemanticCue    string `json:"semantic_cue" yaml:"semantic_cue" validate:"required"`
	FrequencyLevel int    `json:"frequency_level" yaml:"frequency_level" validate:"required,min=1,max=3"`
	ImagePath      string `json:"image_path" yaml:"image_path" validate:"required"`
}

type file struct {
	Words []Word `yaml:"words" validate:"required,min=1,dive"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid catalog: " + strings.Join(parts, "; ")
}

// Catalog is a read-only snapshot of the word list. Safe for concurrent use.
type Catalog struct {
	words []Word
	byID  map[int]int
}

// Load reads and validates the catalog at path.
func Load(filePath string) (*Catalog, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(bytes.NewReader(raw))
}

// Parse decodes a YAML catalog. Unknown keys are rejected.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Words) == 0 {
		return nil, ErrEmpty
	}

	for i := range f.Words {
		trimWord(&f.Words[i])
	}
	if fields := validator.Struct(&f); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	return build(f.Words), nil
}

// New builds a catalog from already validated words, assigning ids in order.
func New(words []Word) *Catalog {
	cp := make([]Word, len(words))
	copy(cp, words)
	return build(cp)
}

func build(words []Word) *Catalog {
	c := &Catalog{words: words, byID: make(map[int]int, len(words))}
	for i := range c.words {
		w := &c.words[i]
		w.ID = i + 1
		w.WordAudio = mediaURL(AudioURLPrefix, w.WordAudio)
		w.CueAudio = mediaURL(AudioURLPrefix, w.CueAudio)
		w.ImagePath = mediaURL(ImageURLPrefix, w.ImagePath)
		c.byID[w.ID] = i
	}
	return c
}

func trimWord(w *Word) {
	w.Word = strings.TrimSpace(w.Word)
	w.WordAudio = strings.TrimSpace(w.WordAudio)
	w.CueAudio = strings.TrimSpace(w.CueAudio)
	w.ImagePath = strings.TrimSpace(w.ImagePath)
}

// mediaURL keeps only the base name of a media reference and mounts it under
// prefix. Absolute URLs pass through.
func mediaURL(prefix, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return prefix + path.Base(strings.ReplaceAll(ref, "\\", "/"))
}

// All returns a copy of every word in catalog order.
func (c *Catalog) All() []Word {
	out := make([]Word, len(c.words))
	copy(out, c.words)
	return out
}

// Get returns the word with the given id.
func (c *Catalog) Get(id int) (Word, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Word{}, false
	}
	return c.words[i], true
}

// Len returns the number of words.
func (c *Catalog) Len() int {
	return len(c.words)
}

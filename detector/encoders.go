package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
)

// SentinelCode is substituted for any categorical value that cannot be
// encoded, so the pipeline always produces an answer.
const SentinelCode = -1

var (
	// ErrNoEncoder reports that no fitted encoder exists for a column.
	ErrNoEncoder = errors.New("no encoder fitted for column")
	// ErrNotInVocabulary reports a value absent from the encoder's trained vocabulary.
	ErrNotInVocabulary = errors.New("value not in encoder vocabulary")
)

// LabelEncoders holds the pre-fitted categorical-to-integer mappings, one per
// column. Loaded once at startup and never mutated.
type LabelEncoders struct {
	columns map[string]map[string]int
}

// LoadLabelEncoders reads the encoder artifact, a JSON object mapping column
// name to value-to-code pairs.
func LoadLabelEncoders(path string) (*LabelEncoders, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read encoders: %w", err)
	}
	var columns map[string]map[string]int
	if err := json.Unmarshal(data, &columns); err != nil {
		return nil, fmt.Errorf("decode encoders: %w", err)
	}
	return &LabelEncoders{columns: columns}, nil
}

// NewLabelEncoders wraps an in-memory mapping, mainly for tests.
func NewLabelEncoders(columns map[string]map[string]int) *LabelEncoders {
	return &LabelEncoders{columns: columns}
}

// Encode returns the trained integer code for value in the named column.
// It fails with ErrNoEncoder when the column has no fitted encoder and with
// ErrNotInVocabulary when the value was not seen during training.
func (e *LabelEncoders) Encode(column, value string) (int, error) {
	vocab, ok := e.columns[column]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoEncoder, column)
	}
	code, ok := vocab[value]
	if !ok {
		return 0, fmt.Errorf("%w: %s=%q", ErrNotInVocabulary, column, value)
	}
	return code, nil
}

// EncodeOrSentinel encodes value, substituting SentinelCode for any failure.
func (e *LabelEncoders) EncodeOrSentinel(column, value string) int {
	code, err := e.Encode(column, value)
	if err != nil {
		return SentinelCode
	}
	return code
}

// Columns returns the names of the columns with a fitted encoder.
func (e *LabelEncoders) Columns() []string {
	out := make([]string, 0, len(e.columns))
	for name := range e.columns {
		out = append(out, name)
	}
	return out
}

// HashCardNumber reduces a card number string to a two-digit pseudo-feature
// in [0, 99]. The transform is lossy and collision-prone on purpose; it only
// hands the model a small integer instead of an unbounded string. xxhash is
// pinned so the code is stable across runs and platforms.
func HashCardNumber(ccNum string) int {
	return int(xxhash.Sum64String(ccNum) % 100)
}

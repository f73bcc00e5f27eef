package file

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/internal/compiler"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for survey files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported survey file format")

// Loader implements ports.ConfigLoader and ports.Watchable for a survey
// definition stored in a single file. The format follows the extension:
// .json, .yaml/.yml, .csv (spreadsheet export) or .hcl.
type Loader struct {
	path     string
	logger   *slog.Logger
	debounce time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets a custom structured logger for the loader.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// minDebounce is the shortest settle delay Watch accepts.
const minDebounce = time.Millisecond

// WithDebounce sets how long Watch waits for writes to settle (default
// 200ms). Values below one millisecond are raised to it.
func WithDebounce(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.debounce = max(d, minDebounce)
	}
}

// NewLoader creates a loader for the survey file at path.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{
		path:     path,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		debounce: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the watched file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and decodes the survey file.
func (l *Loader) Load(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(l.path))
	if ext == ".hcl" {
		return decodeHCL(l.path)
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey file: %w", err)
	}

	var records []domain.Record
	switch ext {
	case ".json":
		records, err = decodeTree(data, json.Unmarshal)
	case ".yaml", ".yml":
		records, err = decodeTree(data, yaml.Unmarshal)
	case ".csv":
		records, err = decodeCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(l.path), err)
	}

	l.logger.Debug("survey file loaded", "path", l.path, "records", len(records))
	return records, nil
}

// decodeTree accepts either a top level list of records or an object with
// a "questions" list.
func decodeTree(data []byte, unmarshal func([]byte, any) error) ([]domain.Record, error) {
	var tree any
	if err := unmarshal(data, &tree); err != nil {
		return nil, err
	}
	if obj, ok := tree.(map[string]any); ok {
		tree = obj["questions"]
	}
	list, ok := tree.([]any)
	if !ok {
		return nil, errors.New("expected a list of questions or a 'questions' key")
	}

	rows := make([]map[string]any, 0, len(list))
	for i, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("question %d is not an object", i)
		}
		rows = append(rows, row)
	}
	return compiler.DecodeRecords(rows)
}

// decodeCSV reads a sheet export: a header row naming the columns, then
// one row per question. Header names are matched case-insensitively and
// unknown columns are ignored.
func decodeCSV(data []byte) ([]domain.Record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	lines, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	header := make([]string, len(lines[0]))
	hasID := false
	for i, h := range lines[0] {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		hasID = hasID || header[i] == "q_id"
	}
	if !hasID {
		return nil, errors.New("csv header has no q_id column")
	}

	rows := make([]map[string]any, 0, len(lines)-1)
	for _, line := range lines[1:] {
		row := make(map[string]any, len(header))
		empty := true
		for i, cell := range line {
			if i >= len(header) {
				break
			}
			row[header[i]] = cell
			empty = empty && strings.TrimSpace(cell) == ""
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return compiler.DecodeRecords(rows)
}

// hclSurveyFile represents the top-level structure of an HCL survey for decoding.
type hclSurveyFile struct {
	Questions []domain.Record `hcl:"question,block"`
}

// decodeHCL parses question "<id>" { ... } blocks.
func decodeHCL(path string) ([]domain.Record, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var parsed hclSurveyFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	return parsed.Questions, nil
}

// Package reviewio reads review files for the command line tool and writes
// its results.
package reviewio

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
)

// Record is one review line of a JSONL file.
type Record struct {
	BusinessID string `json:"business_id"`
	Category   string `json:"category"`
	Text       string `json:"text"`
}

// LoadJSONL loads records from a JSONL file. Blank lines are skipped and
// malformed lines are logged and skipped.
func LoadJSONL(path string, logger *zap.Logger) ([]Record, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read file %s", path)
	}

	var records []Record
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			logger.Warn("skipping malformed record",
				zap.String("path", path),
				zap.Int("line", i+1),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, eris.Wrapf(internalerr.ErrInvalidInput, "no valid records found in %s", path)
	}
	return records, nil
}

// LoadLines loads one review per non-blank line.
func LoadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read file %s", path)
	}

	var reviews []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			reviews = append(reviews, line)
		}
	}
	return reviews, nil
}

// LoadReviews loads review texts from either format. A file whose first
// non-blank line starts with '{' is read as JSONL.
func LoadReviews(path string, logger *zap.Logger) ([]string, error) {
	jsonl, err := isJSONL(path)
	if err != nil {
		return nil, err
	}
	if !jsonl {
		return LoadLines(path)
	}
	records, err := LoadJSONL(path, logger)
	if err != nil {
		return nil, err
	}
	reviews := make([]string, len(records))
	for i, r := range records {
		reviews[i] = r.Text
	}
	return reviews, nil
}

func isJSONL(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, eris.Wrapf(err, "read file %s", path)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return strings.HasPrefix(line, "{"), nil
		}
	}
	return false, nil
}

// GroupByBusiness groups records into one batch per business id, in order of
// first appearance. A business takes the category of its first record that
// names one, or fallback when none does.
func GroupByBusiness(records []Record, fallback string) []opinion.Batch {
	index := make(map[string]int)
	var batches []opinion.Batch
	for _, r := range records {
		i, ok := index[r.BusinessID]
		if !ok {
			i = len(batches)
			index[r.BusinessID] = i
			batches = append(batches, opinion.Batch{BusinessID: r.BusinessID})
		}
		if batches[i].Category == "" && strings.TrimSpace(r.Category) != "" {
			batches[i].Category = r.Category
		}
		batches[i].Reviews = append(batches[i].Reviews, r.Text)
	}
	for i := range batches {
		if batches[i].Category == "" {
			batches[i].Category = fallback
		}
	}
	return batches
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode json")
	}
	return nil
}

// WriteJSONFile writes v to path, or to stdout when path is empty or "-".
func WriteJSONFile(path string, stdout io.Writer, v any) error {
	if path == "" || path == "-" {
		return WriteJSON(stdout, v)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := WriteJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

package compiler

import (
	"fmt"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// DecodeRecords converts loosely typed rows (decoded JSON, YAML or a web
// app payload) into records. Spreadsheet cells often arrive as numbers or
// booleans, so values are weakly converted to strings.
func DecodeRecords(rows []map[string]any) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := DecodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeRecord converts a single loosely typed row into a record.
// Nil cells are left empty.
func DecodeRecord(row map[string]any) (domain.Record, error) {
	var rec domain.Record
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return rec, err
	}
	if err := dec.Decode(row); err != nil {
		return rec, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

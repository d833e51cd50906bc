// Package ingest reads the delimited point stream described in spec §6:
// a sequence of records, each an id, an optional category, and D
// non-negative integer coordinates. It is the "external collaborator"
// the core clustering engine treats as out of scope, implemented here so
// the CLI end to end is runnable.
package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/slash/pkg/config"
	"github.com/therealutkarshpriyadarshi/slash/pkg/point"
)

// Record pairs an ingested point with its original external identity and
// optional seed category, both needed for recluster-mode comparisons
// (spec §4.6 step 1, §7 BCubed-against-seed-labels reporting).
type Record struct {
	OriginalID string
	Category   string
	Point      point.Point
}

// Options controls how a delimited stream is interpreted.
type Options struct {
	ReadHeader    bool
	IDField       string // header name, or a 1-based positional index when no header
	CategoryField string // header name, or a 1-based positional index; empty means "no category column"
	Delimiter     rune   // 0 means auto-detect comma vs tab from the first line
}

// OptionsFromConfig builds ingest Options from a DataConfig.
func OptionsFromConfig(d config.DataConfig) Options {
	return Options{
		ReadHeader:    d.ReadHeader,
		IDField:       d.IDField,
		CategoryField: d.CategoryField,
	}
}

// Read parses a delimited point stream from r. Blank and too-short
// records are skipped; a negative numeric coordinate is a fatal invalid-
// input error naming the offending record (spec §7).
func Read(r io.Reader, opts Options) ([]Record, error) {
	buffered := bufio.NewReader(r)
	delim := opts.Delimiter
	if delim == 0 {
		d, peeked, err := detectDelimiter(buffered)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("ingest: sniffing delimiter: %w", err)
		}
		delim = d
		buffered = peeked
	}

	cr := csv.NewReader(buffered)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	idCol, catCol := -1, -1
	haveCols := false

	var records []Record
	lineNo := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: reading record %d: %w", lineNo+1, err)
		}
		lineNo++

		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		if !haveCols {
			haveCols = true
			if opts.ReadHeader {
				idCol, catCol = resolveHeaderColumns(row, opts)
				continue
			}
			idCol, catCol = resolvePositionalColumns(opts, len(row))
		}

		if len(row) < 2 {
			continue
		}

		rec, err := parseRecord(row, idCol, catCol, lineNo)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func detectDelimiter(r *bufio.Reader) (rune, *bufio.Reader, error) {
	peek, err := r.Peek(4096)
	if err != nil && err != io.EOF && len(peek) == 0 {
		return ',', r, err
	}
	line := string(peek)
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	if strings.Count(line, "\t") > strings.Count(line, ",") {
		return '\t', r, nil
	}
	return ',', r, nil
}

func resolveHeaderColumns(header []string, opts Options) (idCol, catCol int) {
	idCol, catCol = -1, -1
	for i, name := range header {
		name = strings.TrimSpace(name)
		if opts.IDField != "" && name == opts.IDField {
			idCol = i
		}
		if opts.CategoryField != "" && name == opts.CategoryField {
			catCol = i
		}
	}
	if idCol == -1 {
		idCol = 0
	}
	return idCol, catCol
}

func resolvePositionalColumns(opts Options, rowLen int) (idCol, catCol int) {
	idCol, catCol = 0, -1
	if n, err := strconv.Atoi(opts.IDField); err == nil && n >= 1 && n <= rowLen {
		idCol = n - 1
	}
	if opts.CategoryField != "" {
		if n, err := strconv.Atoi(opts.CategoryField); err == nil && n >= 1 && n <= rowLen {
			catCol = n - 1
		}
	}
	return idCol, catCol
}

func parseRecord(row []string, idCol, catCol, lineNo int) (Record, error) {
	var id, category string
	coordFields := make([]string, 0, len(row))
	for i, field := range row {
		switch i {
		case idCol:
			id = strings.TrimSpace(field)
		case catCol:
			category = strings.TrimSpace(field)
		default:
			coordFields = append(coordFields, field)
		}
	}

	coords := make([]uint32, 0, len(coordFields))
	for _, f := range coordFields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("ingest: record %d: unparseable coordinate %q", lineNo, f)
		}
		if v < 0 {
			return Record{}, fmt.Errorf("ingest: record %d: negative coordinate %d is not allowed", lineNo, v)
		}
		if v > int64(^uint32(0)) {
			return Record{}, fmt.Errorf("ingest: record %d: coordinate %d overflows 32 bits", lineNo, v)
		}
		coords = append(coords, uint32(v))
	}

	return Record{
		OriginalID: id,
		Category:   category,
		Point:      point.NewDense(coords),
	}, nil
}

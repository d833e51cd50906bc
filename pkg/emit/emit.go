// Package emit writes the labeled point stream described in spec §6:
// one record per point, with column order, delimiter, and header emission
// driven by configuration.
package emit

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/therealutkarshpriyadarshi/slash/pkg/cluster"
	"github.com/therealutkarshpriyadarshi/slash/pkg/config"
	"github.com/therealutkarshpriyadarshi/slash/pkg/ingest"
)

// Options controls how labeled records are written.
type Options struct {
	WriteHeader   bool
	IDField       string
	CategoryField string
	Delimiter     rune // 0 means comma
}

// OptionsFromConfig builds emit Options from an OutputConfig.
func OptionsFromConfig(o config.OutputConfig) Options {
	return Options{
		WriteHeader:   o.WriteHeader,
		IDField:       o.IDField,
		CategoryField: o.CategoryField,
	}
}

// Write emits one record per entry of originals, in that order, as
// (id, label, coord0...coordD-1), taking each record's label from part;
// a record whose point part does not contain gets an empty label. The
// header's coordinate columns follow the first record's dimensionality.
func Write(w io.Writer, part *cluster.Partition, originals []ingest.Record, opts Options) error {
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}
	defer cw.Flush()

	if len(originals) == 0 {
		return nil
	}
	dim := originals[0].Point.Dim()

	if opts.WriteHeader {
		header := make([]string, 0, 2+dim)
		header = append(header, fieldOr(opts.IDField, "id"), fieldOr(opts.CategoryField, "label"))
		for i := 0; i < dim; i++ {
			header = append(header, "coord"+strconv.Itoa(i))
		}
		if err := cw.Write(header); err != nil {
			return err
		}
	}

	for _, rec := range originals {
		label, _ := part.LabelOf(rec.Point)
		row := make([]string, 0, 2+dim)
		row = append(row, rec.OriginalID, label)
		for i := 0; i < rec.Point.Dim(); i++ {
			row = append(row, strconv.FormatUint(uint64(rec.Point.Coord(i)), 10))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	return cw.Error()
}

func fieldOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Package export reads and writes the GCP placement table.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Header is the column layout of the exported table.
var Header = []string{"Image Name", "pixel x", "pixel y", "latitude", "longitude", "gcp name"}

// ErrMissingColumn is returned when a table lacks one of the Header columns.
var ErrMissingColumn = errors.New("missing column")

// Row is one placement: a GCP at a pixel of an image, with the GCP's
// coordinates.
type Row struct {
	Image string
	X, Y  float64
	Lat   float64
	Lon   float64
	GCP   string
}

func (r Row) record() []string {
	return []string{
		r.Image,
		formatFloat(r.X),
		formatFloat(r.Y),
		formatFloat(r.Lat),
		formatFloat(r.Lon),
		r.GCP,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the header followed by rows.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. Columns are matched by
// header name, so their order does not matter.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range Header {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	cr.FieldsPerRecord = len(header)

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}

		row := Row{
			Image: rec[idx["Image Name"]],
			GCP:   rec[idx["gcp name"]],
		}
		nums := []struct {
			col string
			dst *float64
		}{
			{"pixel x", &row.X},
			{"pixel y", &row.Y},
			{"latitude", &row.Lat},
			{"longitude", &row.Lon},
		}
		for _, n := range nums {
			v, err := strconv.ParseFloat(rec[idx[n.col]], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, %s: %w", line, n.col, err)
			}
			*n.dst = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

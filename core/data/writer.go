package data

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Write serializes ds in the given format. Text datasets cannot be written
// back because token order is not kept.
func Write(w io.Writer, ds *DataSet, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, ds)
	case FormatSparse:
		return writeSparse(w, ds)
	default:
		return errors.NewValueError("data.Write", "cannot write format "+strconv.Quote(string(format)))
	}
}

func writeCSV(w io.Writer, ds *DataSet) error {
	indices := ds.AllFeatureIndices()
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(indices)+1)
	for _, idx := range indices {
		header = append(header, ds.FeatureMap().Name(idx))
	}
	header = append(header, "label")
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	record := make([]string, len(indices)+1)
	for _, e := range ds.Data() {
		for i, idx := range indices {
			record[i] = formatFloat(e.Feature(idx))
		}
		record[len(indices)] = formatFloat(e.Label())
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "write csv record")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

func writeSparse(w io.Writer, ds *DataSet) error {
	bw := bufio.NewWriter(w)
	for _, e := range ds.Data() {
		if _, err := bw.WriteString(e.String() + "\n"); err != nil {
			return errors.Wrap(err, "write sparse record")
		}
	}
	return errors.Wrap(bw.Flush(), "flush sparse")
}

package data

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/pkg/log"
)

// Format identifies a dataset file layout.
type Format string

const (
	// FormatText is one example per line: "label<TAB>free text". Every
	// distinct whitespace-separated token becomes a feature with value 1.
	FormatText Format = "text"
	// FormatCSV has a header row of column names. One column holds the
	// label (the last one unless configured); zeros are not stored.
	FormatCSV Format = "csv"
	// FormatSparse is one example per line: "label idx:val idx:val ...".
	FormatSparse Format = "sparse"
)

// ParseFormat converts a format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatCSV, FormatSparse:
		return f, nil
	}
	return "", errors.NewValueError("data.ParseFormat", "unknown format "+strconv.Quote(s)+" (want text, csv or sparse)")
}

// maxLineErrors bounds how many bad lines are reported before reading stops.
const maxLineErrors = 20

type readConfig struct {
	source      string
	labelColumn string
}

// ReadOption configures Read and Load.
type ReadOption func(*readConfig)

// WithLabelColumn names the CSV column holding the label.
func WithLabelColumn(name string) ReadOption {
	return func(c *readConfig) {
		c.labelColumn = name
	}
}

// WithSourceName sets the name used in parse errors.
func WithSourceName(name string) ReadOption {
	return func(c *readConfig) {
		c.source = name
	}
}

// Load reads the dataset stored at path.
func Load(path string, format Format, opts ...ReadOption) (*DataSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	ds, err := Read(f, format, append([]ReadOption{WithSourceName(path)}, opts...)...)
	if err != nil {
		return nil, err
	}
	log.GetLoggerWithName("data").Debug("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.PathKey, path,
		log.FormatKey, string(format),
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, len(ds.AllFeatureIndices()),
		log.ClassesKey, len(ds.Labels()),
	)
	return ds, nil
}

// Read parses a dataset from r. Every malformed line is reported, up to a
// limit, in a single combined error.
func Read(r io.Reader, format Format, opts ...ReadOption) (*DataSet, error) {
	cfg := readConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		ds  *DataSet
		err error
	)
	switch format {
	case FormatText:
		ds, err = readText(r, cfg)
	case FormatCSV:
		ds, err = readCSV(r, cfg)
	case FormatSparse:
		ds, err = readSparse(r, cfg)
	default:
		return nil, errors.NewValueError("data.Read", "unknown format "+strconv.Quote(string(format)))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s dataset", format)
	}
	return ds, nil
}

// lineScanner walks non-empty, non-comment lines.
func lineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return sc
}

func skipLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

func readText(r io.Reader, cfg readConfig) (*DataSet, error) {
	ds := NewDataSet(nil)
	tokens := make(map[string]int)
	var errs error
	nErrs := 0

	sc := lineScanner(r)
	for lineNo := 1; sc.Scan() && nErrs < maxLineErrors; lineNo++ {
		line := sc.Text()
		if skipLine(line) {
			continue
		}
		labelText, body, ok := strings.Cut(line, "\t")
		if !ok {
			errs = multierr.Append(errs, errors.NewParseError(cfg.source, lineNo, "missing tab between label and text"))
			nErrs++
			continue
		}
		label, err := strconv.ParseFloat(strings.TrimSpace(labelText), 64)
		if err != nil {
			errs = multierr.Append(errs, errors.NewParseError(cfg.source, lineNo, "invalid label "+strconv.Quote(labelText)))
			nErrs++
			continue
		}

		e := NewExample(label, nil)
		for _, tok := range strings.Fields(body) {
			idx, seen := tokens[tok]
			if !seen {
				idx = len(tokens)
				tokens[tok] = idx
				ds.features.Add(idx, tok)
				ds.sortedFeatures = append(ds.sortedFeatures, idx)
			}
			e.SetFeature(idx, 1)
		}
		ds.AddData(e)
	}
	if err := sc.Err(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return nil, errs
	}
	return ds, nil
}

func readCSV(r io.Reader, cfg readConfig) (*DataSet, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewParseError(cfg.source, 1, "missing header row")
	}
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, errors.NewParseError(cfg.source, 1, "need at least one feature column and a label column")
	}

	labelCol := len(header) - 1
	if cfg.labelColumn != "" {
		labelCol = -1
		for i, name := range header {
			if strings.TrimSpace(name) == cfg.labelColumn {
				labelCol = i
				break
			}
		}
		if labelCol < 0 {
			return nil, errors.NewParseError(cfg.source, 1, "label column "+strconv.Quote(cfg.labelColumn)+" not found")
		}
	}

	// Feature indices follow column order, skipping the label column.
	fm := NewFeatureMap()
	columnIndex := make([]int, len(header))
	next := 0
	for i, name := range header {
		if i == labelCol {
			columnIndex[i] = -1
			continue
		}
		columnIndex[i] = next
		fm.Add(next, strings.TrimSpace(name))
		next++
	}

	ds := NewDataSet(fm)
	var errs error
	nErrs := 0
	for nErrs < maxLineErrors {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
				err = pe.Err
			}
			errs = multierr.Append(errs, errors.NewParseError(cfg.source, line, err.Error()))
			nErrs++
			continue
		}
		line, _ := cr.FieldPos(0)

		e, reason := parseCSVRecord(record, labelCol, columnIndex)
		if reason != "" {
			errs = multierr.Append(errs, errors.NewParseError(cfg.source, line, reason))
			nErrs++
			continue
		}
		ds.AddData(e)
	}
	if errs != nil {
		return nil, errs
	}
	return ds, nil
}

func parseCSVRecord(record []string, labelCol int, columnIndex []int) (*Example, string) {
	label, err := strconv.ParseFloat(strings.TrimSpace(record[labelCol]), 64)
	if err != nil {
		return nil, "invalid label " + strconv.Quote(record[labelCol])
	}
	e := NewExample(label, nil)
	for i, field := range record {
		if i == labelCol {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, "invalid value " + strconv.Quote(field) + " in column " + strconv.Itoa(i+1)
		}
		if v != 0 {
			e.SetFeature(columnIndex[i], v)
		}
	}
	return e, ""
}

func readSparse(r io.Reader, cfg readConfig) (*DataSet, error) {
	ds := NewDataSet(nil)
	var errs error
	nErrs := 0

	sc := lineScanner(r)
	for lineNo := 1; sc.Scan() && nErrs < maxLineErrors; lineNo++ {
		line := sc.Text()
		if skipLine(line) {
			continue
		}
		e, reason := parseSparseLine(line)
		if reason != "" {
			errs = multierr.Append(errs, errors.NewParseError(cfg.source, lineNo, reason))
			nErrs++
			continue
		}
		ds.AddData(e)
	}
	if err := sc.Err(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return nil, errs
	}
	return ds, nil
}

func parseSparseLine(line string) (*Example, string) {
	fields := strings.Fields(line)
	label, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, "invalid label " + strconv.Quote(fields[0])
	}
	e := NewExample(label, nil)
	for _, pair := range fields[1:] {
		idxText, valText, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, "expected idx:val, got " + strconv.Quote(pair)
		}
		idx, err := strconv.Atoi(idxText)
		if err != nil || idx < 0 {
			return nil, "invalid feature index " + strconv.Quote(idxText)
		}
		v, err := strconv.ParseFloat(valText, 64)
		if err != nil {
			return nil, "invalid feature value " + strconv.Quote(valText)
		}
		e.SetFeature(idx, v)
	}
	return e, ""
}

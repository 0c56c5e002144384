package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrUnsupportedFormat is returned for files whose extension is not .xlsx, .xls or .csv.
	ErrUnsupportedFormat = errors.New("importer: unsupported file format")
	// ErrMalformedFile is returned when the upload cannot be decoded as a spreadsheet.
	ErrMalformedFile = errors.New("importer: file could not be decoded as a spreadsheet")
)

// Format identifies an accepted upload format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

// DetectFormat maps a file name to its format by extension only.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
}

// Decode reads the first worksheet of an uploaded file into SourceRows, in
// file order. The first non-blank row is the header; fully blank rows are
// dropped.
func Decode(filename string, r io.Reader) ([]SourceRow, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	case FormatXLS:
		records, err = readXLS(r)
	case FormatCSV:
		records, err = readCSV(r)
	}
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(records), nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no worksheets", ErrMalformedFile)
	}

	// Raw values keep numbers free of the workbook's display formatting
	// (thousands separators, currency symbols).
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %q: %v", ErrMalformedFile, sheets[0], err)
	}
	return records, nil
}

// readXLS reads the first worksheet of a legacy BIFF (Excel 97-2003) workbook.
// Numeric cells come back unformatted, like RawCellValue for .xlsx.
func readXLS(r io.Reader) (records [][]string, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("importer: reading upload: %w", err)
	}

	// The BIFF reader slices the raw stream without bounds checks and panics
	// on truncated or corrupt records.
	defer func() {
		if rec := recover(); rec != nil {
			records, err = nil, fmt.Errorf("%w: corrupt xls workbook: %v", ErrMalformedFile, rec)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	sheet, err := wb.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("%w: workbook has no worksheets", ErrMalformedFile)
	}

	for _, row := range sheet.GetRows() {
		cols := row.GetCols()
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = latin1Fallback(col.GetString())
		}
		records = append(records, cells)
	}
	return records, nil
}

// latin1Fallback repairs compressed BIFF8 strings, which the reader returns
// as raw ISO-8859-1 bytes.
func latin1Fallback(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	if decoded, err := charmap.ISO8859_1.NewDecoder().String(s); err == nil {
		return decoded
	}
	return s
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("importer: reading upload: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	return records, nil
}

// sniffDelimiter picks ';' over ',' when the first line has more semicolons,
// which is what spreadsheet software emits in comma-decimal locales.
func sniffDelimiter(data []byte) rune {
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}

func rowsFromRecords(records [][]string) []SourceRow {
	headerAt := -1
	for i, rec := range records {
		if !isBlank(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil
	}

	mapped := mapHeader(records[headerAt])
	rows := make([]SourceRow, 0, len(records)-headerAt-1)
	for i := headerAt + 1; i < len(records); i++ {
		row, ok := rowFromCells(i+1, mapped, records[i])
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

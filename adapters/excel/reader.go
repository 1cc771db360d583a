package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"simvote/domain/core"
	"simvote/internal"

	"github.com/xuri/excelize/v2"
)

// SheetRow is one data row keyed by column header
type SheetRow map[string]string

// SheetData is a sheet read back from an export: its header and data rows
type SheetData struct {
	Headers []string
	Rows    []SheetRow
}

// DataReader reads exported sheets back from xlsx or csv files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *internal.Logger
}

// NewDataReader creates a reader for filePath; xlsx files are read from sheet
func NewDataReader(filePath, sheet string, logger *internal.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, sheet: sheet, logger: logger.OrDefault()}
}

// ReadData reads the sheet into structured format
func (r *DataReader) ReadData() (*SheetData, error) {
	r.logger.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	file, err := os.Open(r.filePath)
	if os.IsNotExist(err) {
		return nil, core.NewMissingFileError(r.filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", r.filePath, err)
	}
	defer file.Close()

	return r.Read(file)
}

// Read parses src in the reader's file format
func (r *DataReader) Read(src io.Reader) (*SheetData, error) {
	switch r.fileType {
	case "csv":
		return r.readCSV(src)
	case "xlsx":
		f, err := excelize.OpenReader(src)
		if err != nil {
			return nil, fmt.Errorf("failed to open Excel file: %w", err)
		}
		defer f.Close()
		return r.readSheet(f)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readSheet reads the configured sheet of an open workbook
func (r *DataReader) readSheet(f *excelize.File) (*SheetData, error) {
	startTime := time.Now()
	rows, err := f.GetRows(r.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", r.sheet, err)
	}
	r.logger.Debug("[DataReader] Sheet %s read in %.2fms (%d rows)", r.sheet, core.Millis(startTime), len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("sheet %q has no header row", r.sheet)
	}
	return r.processRows(rows)
}

// readCSV reads CSV data into structured format
func (r *DataReader) readCSV(src io.Reader) (*SheetData, error) {
	startTime := time.Now()
	rows, err := csv.NewReader(src).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	r.logger.Debug("[DataReader] CSV file read in %.2fms (%d rows)", core.Millis(startTime), len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("CSV file has no header row")
	}
	return r.processRows(rows)
}

// processRows keys every data row by the header row
func (r *DataReader) processRows(rows [][]string) (*SheetData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]SheetRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(SheetRow, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Debug("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &SheetData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

// FloatColumn parses one column of data as floats
func (d *SheetData) FloatColumn(name string) ([]float64, error) {
	found := false
	for _, h := range d.Headers {
		if h == name {
			found = true
			break
		}
	}
	if !found {
		return nil, core.NewMissingColumnError(name)
	}

	values := make([]float64, len(d.Rows))
	for i, row := range d.Rows {
		v, err := strconv.ParseFloat(row[name], 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i+1, err)
		}
		values[i] = v
	}
	return values, nil
}

// KeyValues reads a two-column key/value sheet, skipping the header row
func (d *SheetData) KeyValues() map[string]string {
	out := make(map[string]string, len(d.Rows))
	if len(d.Headers) < 2 {
		return out
	}
	for _, row := range d.Rows {
		out[row[d.Headers[0]]] = row[d.Headers[1]]
	}
	return out
}

package session

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/Beekeepers-Inc/rats/internal/engine"
)

// utf8BOM is prepended by some Windows tools; the CSV reader must not
// mistake it for the start of the first header cell.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned past a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// PreviewFile samples the first rows of a file as raw strings. It never
// touches the engine, so it cannot contend with a running command.
// rows <= 0 falls back to the default sample size.
func PreviewFile(path string, rows int) (*PreviewData, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	if rows <= 0 {
		rows = DefaultPreviewRows
	}

	switch format {
	case formatCSV:
		return previewCSV(path, rows)
	default:
		return previewExcel(path, rows)
	}
}

func previewCSV(path string, limit int) (*PreviewData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, engine.Wrap(engine.KindIO, err, "")
	}
	defer f.Close()

	r := csv.NewReader(skipBOM(f))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &PreviewData{Columns: []string{}, Rows: [][]string{}}, nil
	}
	if err != nil {
		return nil, engine.Wrap(engine.KindParse, err, "")
	}

	sample := make([][]string, 0, limit)
	total := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, engine.Wrap(engine.KindParse, err, "")
		}
		total++
		if len(sample) < limit {
			sample = append(sample, record)
		}
	}

	return &PreviewData{Columns: header, Rows: sample, TotalRows: total}, nil
}

func previewExcel(path string, limit int) (*PreviewData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, engine.Wrap(engine.KindParse, err, "Excel error")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, engine.Errorf(engine.KindParse, "No sheets found")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, engine.Wrap(engine.KindParse, err, "")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Error(); err != nil {
			return nil, engine.Wrap(engine.KindParse, err, "")
		}
		return nil, engine.Errorf(engine.KindParse, "Empty sheet")
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, engine.Wrap(engine.KindParse, err, "")
	}
	if header == nil {
		header = []string{}
	}

	sample := make([][]string, 0, limit)
	total := 0
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return nil, engine.Wrap(engine.KindParse, err, "")
		}
		total++
		if len(sample) < limit {
			sample = append(sample, cells)
		}
	}
	if err := rows.Error(); err != nil {
		return nil, engine.Wrap(engine.KindParse, err, "")
	}

	return &PreviewData{Columns: header, Rows: sample, TotalRows: total}, nil
}

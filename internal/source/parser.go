package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/xuri/excelize/v2"
)

// Parser downloads the registry spreadsheet and reads drug names from it.
type Parser struct {
	client   *http.Client
	column   int
	startRow int
	maxBytes int64
}

// ParserOptions configures which cells hold the drug names.
type ParserOptions struct {
	Column   string // column letter, "A" by default
	StartRow int    // first data row, 1-based; rows above are headers
	MaxBytes int64  // download size cap
}

// NewParser creates a parser. Zero options fall back to column A, row 4
// and a 64MB download cap.
func NewParser(client *http.Client, opts ParserOptions) (*Parser, error) {
	if opts.Column == "" {
		opts.Column = "A"
	}
	if opts.StartRow <= 0 {
		opts.StartRow = 4
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 64 << 20
	}

	column, err := excelize.ColumnNameToNumber(opts.Column)
	if err != nil {
		return nil, fmt.Errorf("invalid name column %q: %w", opts.Column, err)
	}

	return &Parser{
		client:   client,
		column:   column,
		startRow: opts.StartRow,
		maxBytes: opts.MaxBytes,
	}, nil
}

// Parse downloads the spreadsheet at downloadURL and returns a sequence over
// the name column of its first sheet, starting at the configured row.
// The caller must Close the sequence.
func (p *Parser) Parse(ctx context.Context, downloadURL string) (*NameSequence, error) {
	data, err := p.Download(ctx, downloadURL)
	if err != nil {
		return nil, err
	}
	return p.Open(bytes.NewReader(data))
}

// Open reads an already downloaded workbook and skips the header rows.
func (p *Parser) Open(r io.Reader) (*NameSequence, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	seq := &NameSequence{file: f, rows: rows, column: p.column}

	// Skip the header rows. A sheet without a single row is malformed.
	for seq.row < p.startRow-1 {
		if !seq.advance() {
			break
		}
	}
	if seq.row == 0 && seq.err == nil {
		// Data starts at row 1: peek so an empty sheet is still caught.
		seq.pending = seq.advance()
	}
	if seq.err != nil {
		_ = seq.Close()
		return nil, seq.err
	}
	if seq.row == 0 {
		_ = seq.Close()
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrParse, sheets[0])
	}

	return seq, nil
}

// Download fetches the raw spreadsheet bytes, enforcing the size cap.
func (p *Parser) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := newGetRequest(ctx, downloadURL)
	if err != nil {
		return nil, &DownloadError{URL: downloadURL, Err: err}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: downloadURL, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, &DownloadError{URL: downloadURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return nil, &DownloadError{URL: downloadURL, Err: err}
	}
	if int64(len(data)) > p.maxBytes {
		return nil, &DownloadError{URL: downloadURL, Err: fmt.Errorf("file exceeds %d bytes", p.maxBytes)}
	}

	return data, nil
}

// NameSequence yields the name cell of each row in order. It is read once;
// there is no way to rewind it.
//
//	for seq.Next() {
//		name := seq.Name()
//	}
//	if err := seq.Err(); err != nil { ... }
type NameSequence struct {
	file    *excelize.File
	rows    *excelize.Rows
	column  int
	row     int
	name    string
	err     error
	done    bool
	pending bool
}

// Next advances to the next row. It returns false at the end of the sheet
// or on error.
func (s *NameSequence) Next() bool {
	if s.pending {
		s.pending = false
		return true
	}
	return s.advance()
}

func (s *NameSequence) advance() bool {
	if s.done {
		return false
	}
	if !s.rows.Next() {
		s.done = true
		if err := s.rows.Error(); err != nil {
			s.err = fmt.Errorf("%w: %v", ErrParse, err)
		}
		return false
	}
	s.row++

	cols, err := s.rows.Columns()
	if err != nil {
		s.done = true
		s.err = fmt.Errorf("%w: row %d: %v", ErrParse, s.row, err)
		return false
	}

	s.name = ""
	if len(cols) >= s.column {
		s.name = cols[s.column-1]
	}
	return true
}

// Name is the raw text of the current row's name cell. Blank rows yield "".
func (s *NameSequence) Name() string { return s.name }

// Row is the 1-based sheet row of the current name.
func (s *NameSequence) Row() int { return s.row }

// Err returns the first error hit while iterating.
func (s *NameSequence) Err() error { return s.err }

// Close releases the workbook.
func (s *NameSequence) Close() error {
	s.done = true
	rowsErr := s.rows.Close()
	fileErr := s.file.Close()
	if rowsErr != nil {
		return rowsErr
	}
	return fileErr
}

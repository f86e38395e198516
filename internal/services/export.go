package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/obotesoftech/prisonreturns/types"
	"github.com/xuri/excelize/v2"
)

const exportTimeLayout = "2006-01-02 15:04:05"

const exportSheet = "Returns"

var exportHeader = []string{
	"Return Type",
	"Frequency",
	"Station",
	"Submitted By",
	"Submitted At",
	"Status",
	"Data",
	"Comment",
	"File Name",
}

// ExportCSV renders the caller's visible returns as CSV. It fails with
// ErrNoRows when there is nothing to export.
func (s *ReturnService) ExportCSV(ctx context.Context, caller types.Session) ([]byte, error) {
	records, err := s.exportable(ctx, caller)
	if err != nil {
		return nil, err
	}
	return []byte(RenderCSV(records)), nil
}

// ExportXLSX renders the same rows as ExportCSV into a spreadsheet.
func (s *ReturnService) ExportXLSX(ctx context.Context, caller types.Session) ([]byte, error) {
	records, err := s.exportable(ctx, caller)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			r.ReturnTypeLabel(),
			string(r.Frequency),
			r.Station,
			r.SubmittedBy,
			r.SubmittedAt.UTC().Format(exportTimeLayout),
			r.Status.String(),
			r.Data,
			r.Comment,
			r.FileName(),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ReturnService) exportable(ctx context.Context, caller types.Session) ([]types.ReturnRecord, error) {
	if !caller.Role.Valid() {
		return nil, ErrForbidden
	}
	records, err := s.List(ctx, caller)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRows
	}
	return records, nil
}

// RenderCSV writes the export header and one line per record, joined by
// "\n". Data is always quoted, Comment is quoted when present and the other
// fields only when they contain a comma, quote or line break.
func RenderCSV(records []types.ReturnRecord) string {
	var b strings.Builder
	b.WriteString(strings.Join(exportHeader, ","))

	for _, r := range records {
		comment := ""
		if r.Comment != "" {
			comment = quoteCSV(r.Comment)
		}
		fields := []string{
			escapeCSV(r.ReturnTypeLabel()),
			escapeCSV(string(r.Frequency)),
			escapeCSV(r.Station),
			escapeCSV(r.SubmittedBy),
			escapeCSV(r.SubmittedAt.UTC().Format(exportTimeLayout)),
			escapeCSV(r.Status.String()),
			quoteCSV(r.Data),
			comment,
			escapeCSV(r.FileName()),
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(fields, ","))
	}
	return b.String()
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quoteCSV(s)
	}
	return s
}

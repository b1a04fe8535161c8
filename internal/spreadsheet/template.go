package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/memberdesk/internal/core"
)

// TemplateFileName is the suggested download name.
const TemplateFileName = "members-import-template.xlsx"

const (
	membersSheet = "Members"
	guideSheet   = "Headers"
)

// Template builds an empty import workbook. The first sheet carries the
// canonical headers; the second lists the Arabic label accepted for each.
func Template() ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", membersSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	headers := core.TemplateHeaders()
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(membersSheet, "A1", &row); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}

	if _, err := f.NewSheet(guideSheet); err != nil {
		return nil, fmt.Errorf("add guide sheet: %w", err)
	}
	if err := f.SetSheetRow(guideSheet, "A1", &[]any{"field", "arabic"}); err != nil {
		return nil, fmt.Errorf("write guide header: %w", err)
	}
	for i, h := range headers {
		label := core.LocalizedHeader(h)
		if h == core.KeyMembershipDate {
			label = core.LocalizedHeader(core.KeyJoinedAt)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(guideSheet, cell, &[]any{h, label}); err != nil {
			return nil, fmt.Errorf("write guide row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	return buf.Bytes(), nil
}

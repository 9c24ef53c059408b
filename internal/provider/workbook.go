package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/sheetjson/internal/core"
	"github.com/xuri/excelize/v2"
)

// WorkbookExt is the file extension of documents served by Workbook.
const WorkbookExt = ".xlsx"

// Workbook serves documents from .xlsx files in a directory. The document
// id is the file name without extension and a tab's stable id is the
// workbook's internal sheet id, which survives renames and reordering.
type Workbook struct {
	dir string
}

// NewWorkbook creates a provider rooted at dir.
func NewWorkbook(dir string) *Workbook {
	return &Workbook{dir: dir}
}

// Documents lists the document ids available in the directory.
func (w *Workbook) Documents() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read workbook dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), WorkbookExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(ids)
	return ids, nil
}

// Metadata lists the workbook's tabs in positional order.
func (w *Workbook) Metadata(_ context.Context, documentID string) (core.Metadata, error) {
	f, err := w.open(documentID)
	if err != nil {
		return core.Metadata{}, err
	}
	defer f.Close()

	ids := make(map[string]int64)
	for id, name := range f.GetSheetMap() {
		ids[name] = int64(id)
	}

	names := f.GetSheetList()
	meta := core.Metadata{Tabs: make([]core.Tab, len(names))}
	for i, name := range names {
		meta.Tabs[i] = core.Tab{Index: i, StableID: ids[name], Title: name}
	}
	return meta, nil
}

// Values returns the sheet's rows as strings, first row as headers.
// Trailing empty cells are not returned, so rows may be short.
func (w *Workbook) Values(_ context.Context, sheet core.ResolvedSheet) (core.RawTable, error) {
	f, err := w.open(sheet.DocumentID)
	if err != nil {
		return core.RawTable{}, err
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheet.Title); idx < 0 {
		return core.RawTable{}, core.UpstreamError(fmt.Sprintf("Unable to parse range: %s", sheet.Title), nil)
	}

	rows, err := f.GetRows(sheet.Title)
	if err != nil {
		return core.RawTable{}, core.UpstreamError("", fmt.Errorf("read sheet %q: %w", sheet.Title, err))
	}

	values := make([][]core.Value, len(rows))
	for i, row := range rows {
		values[i] = make([]core.Value, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}
	return core.NewRawTable(values), nil
}

func (w *Workbook) open(documentID string) (*excelize.File, error) {
	if documentID == "" || documentID != filepath.Base(documentID) || strings.HasPrefix(documentID, ".") {
		return nil, core.UpstreamError("Requested entity was not found.", nil)
	}

	path := filepath.Join(w.dir, documentID+WorkbookExt)
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.UpstreamError("Requested entity was not found.", err)
		}
		return nil, core.UpstreamError("", fmt.Errorf("open workbook %s: %w", documentID, err))
	}
	return f, nil
}

// Package loader reads monthly P&L CSV exports into core datasets.
//
// Files follow the YYYY_MM_<report-name>.csv convention and may be UTF-8 or
// Shift-JIS. Columns are located by header name so the loader tolerates the
// accounting system's full 23-column layout as well as trimmed exports. Bad
// rows are skipped with a warning; a load never aborts on one bad row.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/hatauchi-tech/Fukui-BI/internal/core"
	applog "github.com/hatauchi-tech/Fukui-BI/internal/log"
)

// Column headers of the accounting export. Required columns must be present
// in the header row; the rest are optional.
const (
	colDept     = "部課ｺｰﾄﾞ"
	colDeptName = "部課名"
	colSheet    = "出力帳票"
	colAccount  = "科目ｺｰﾄﾞ"
	colAcctName = "科目名"
	colAmount   = "残高"
	colPeriod   = "開始年月"
)

var requiredColumns = []string{colDept, colAccount, colAcctName, colAmount}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader reads all period CSVs from one data directory.
type Loader struct {
	dir string
}

func New(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the data directory this loader scans.
func (l *Loader) Dir() string { return l.dir }

// LoadAll scans the data directory and returns one dataset per period,
// chronologically ordered, plus every warning collected on the way. When two
// files resolve to the same period the lexicographically later file name
// wins wholesale and a DuplicatePeriod warning is recorded.
func (l *Loader) LoadAll() ([]core.Dataset, core.Warnings, error) {
	names, err := filepath.Glob(filepath.Join(l.dir, "*.csv"))
	if err != nil {
		return nil, nil, fmt.Errorf("scan data directory: %w", err)
	}
	sort.Strings(names)

	var warnings core.Warnings
	byPeriod := map[core.Period]core.Dataset{}

	for _, path := range names {
		ds, ws, err := l.LoadFile(path)
		warnings = append(warnings, ws...)
		if err != nil {
			warnings = append(warnings, loadFailureWarning(path, err))
			continue
		}
		if prev, ok := byPeriod[ds.Period]; ok {
			warnings = append(warnings, core.Warning{
				Kind: core.WarnDuplicatePeriod,
				File: filepath.Base(path),
				Message: fmt.Sprintf("period %s already loaded from %s; keeping %s",
					ds.Period, strings.Join(prev.Sources, ","), filepath.Base(path)),
			})
		}
		byPeriod[ds.Period] = ds
	}

	datasets := make([]core.Dataset, 0, len(byPeriod))
	for _, ds := range byPeriod {
		datasets = append(datasets, ds)
	}
	core.SortPeriods(datasets)

	slog.Info("Data directory loaded",
		applog.FieldComponent, applog.ComponentLoader,
		"dir", l.dir,
		"files", len(names),
		"periods", len(datasets),
		applog.FieldWarnings, len(warnings))

	return datasets, warnings, nil
}

// LoadFile parses one CSV export into a dataset. Row-level problems come
// back as warnings; file-level problems (missing file, undecodable content,
// header without the required columns, no recognizable period) are errors.
func (l *Loader) LoadFile(path string) (core.Dataset, core.Warnings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return core.Dataset{}, nil, fmt.Errorf("read file: %w", err)
	}
	text, err := decode(raw)
	if err != nil {
		return core.Dataset{}, nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	file := filepath.Base(path)
	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return core.Dataset{}, nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return core.Dataset{}, nil, err
	}

	period, havePeriod := core.PeriodFromFilename(file)

	var (
		warnings core.Warnings
		records  []core.Record
		line     = 1
	)
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			warnings = append(warnings, core.Warning{
				Kind: core.WarnSkippedRow, File: file, Line: line,
				Message: fmt.Sprintf("unreadable row: %v", err),
			})
			continue
		}
		if isBlank(row) {
			continue
		}

		// File name did not carry a period: fall back to the first
		// usable 開始年月 cell.
		if !havePeriod {
			if idx, ok := cols[colPeriod]; ok && idx < len(row) {
				if p, perr := core.ParsePeriod(row[idx]); perr == nil {
					period = p
					havePeriod = true
				}
			}
		}

		rec, w := parseRow(row, cols, file, line)
		if w != nil {
			warnings = append(warnings, *w)
			continue
		}
		records = append(records, rec)
	}

	if !havePeriod {
		return core.Dataset{}, warnings, fmt.Errorf("no period in file name or 開始年月 column")
	}

	slog.Debug("File parsed",
		applog.FieldComponent, applog.ComponentLoader,
		applog.FieldFile, file,
		applog.FieldPeriod, period.String(),
		applog.FieldRecords, len(records),
		applog.FieldSkipped, warnings.Count(core.WarnSkippedRow))

	return core.Dataset{
		Period:  period,
		Records: records,
		Sources: []string{file},
	}, warnings, nil
}

func parseRow(row []string, cols map[string]int, file string, line int) (core.Record, *core.Warning) {
	get := func(name string) (string, bool) {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[idx]), true
	}

	deptField, ok := get(colDept)
	if !ok || deptField == "" {
		return core.Record{}, &core.Warning{
			Kind: core.WarnSkippedRow, File: file, Line: line,
			Message: "missing department code",
		}
	}
	deptCode, err := strconv.Atoi(deptField)
	if err != nil {
		return core.Record{}, &core.Warning{
			Kind: core.WarnSkippedRow, File: file, Line: line,
			Message: fmt.Sprintf("non-numeric department code %q", deptField),
		}
	}
	dept, err := core.ParseDepartment(deptCode)
	if err != nil {
		return core.Record{}, &core.Warning{
			Kind: core.WarnUnknownDepartment, File: file, Line: line,
			Message: fmt.Sprintf("department %d is not in the known set", deptCode),
		}
	}

	acctField, ok := get(colAccount)
	if !ok {
		return core.Record{}, &core.Warning{
			Kind: core.WarnSkippedRow, File: file, Line: line,
			Message: "missing account code",
		}
	}
	account, err := core.ParseAccountCode(acctField)
	if err != nil {
		return core.Record{}, &core.Warning{
			Kind: core.WarnSkippedRow, File: file, Line: line,
			Message: fmt.Sprintf("bad account code %q", acctField),
		}
	}

	amountField, ok := get(colAmount)
	if !ok {
		return core.Record{}, &core.Warning{
			Kind: core.WarnSkippedRow, File: file, Line: line,
			Message: "missing amount column",
		}
	}
	amount, err := core.ParseYen(amountField)
	if err != nil {
		return core.Record{}, &core.Warning{
			Kind: core.WarnSkippedRow, File: file, Line: line,
			Message: fmt.Sprintf("non-numeric amount %q", amountField),
		}
	}

	sheet := core.SheetMain
	if v, ok := get(colSheet); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || (n != 0 && n != 1) {
			return core.Record{}, &core.Warning{
				Kind: core.WarnSkippedRow, File: file, Line: line,
				Message: fmt.Sprintf("bad 出力帳票 value %q", v),
			}
		}
		sheet = core.ReportSheet(n)
	}

	acctName, _ := get(colAcctName)
	deptName, _ := get(colDeptName)

	return core.Record{
		Department:  dept,
		DeptName:    deptName,
		Sheet:       sheet,
		Account:     account,
		AccountName: acctName,
		Amount:      amount,
	}, nil
}

// mapColumns locates the known columns in the header row, tolerating extra
// columns and surrounding whitespace.
func mapColumns(header []string) (map[string]int, error) {
	cols := map[string]int{}
	for i, h := range header {
		name := strings.TrimSpace(h)
		switch name {
		case colDept, colDeptName, colSheet, colAccount, colAcctName, colAmount, colPeriod:
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// decode returns UTF-8 text, stripping a BOM and falling back to Shift-JIS
// when the bytes are not valid UTF-8.
func decode(raw []byte) ([]byte, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return raw, nil
	}
	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("not UTF-8 and Shift-JIS decode failed: %w", err)
	}
	return decoded, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// loadFailureWarning classifies a file-level load error.
func loadFailureWarning(path string, err error) core.Warning {
	file := filepath.Base(path)
	kind := core.WarnInvalidSchema
	if errors.Is(err, os.ErrNotExist) {
		kind = core.WarnFileNotFound
	}
	return core.Warning{Kind: kind, File: file, Message: err.Error()}
}

package core

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Department is a cost/profit center code from the fixed company set.
// DeptAll is the synthetic company-wide aggregate, never present in source
// rows.
type Department int

const DeptAll Department = 0

const (
	DeptHeadOffice Department = 210
	DeptFukuiSales Department = 220
	DeptTokyoSales Department = 230
	DeptOsakaSales Department = 240
	DeptFukuiPlant Department = 250
	DeptSabaePlant Department = 260
	DeptLogistics  Department = 270
	DeptCommon     Department = 900
)

var (
	ErrUnknownDepartment = errors.New("unknown department code")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrInvalidAccount    = errors.New("invalid account code")
)

var departmentSet = []Department{
	DeptHeadOffice, DeptFukuiSales, DeptTokyoSales, DeptOsakaSales,
	DeptFukuiPlant, DeptSabaePlant, DeptLogistics, DeptCommon,
}

// Departments returns the fixed department set in code order.
func Departments() []Department {
	out := make([]Department, len(departmentSet))
	copy(out, departmentSet)
	return out
}

// ParseDepartment validates a raw code against the fixed set.
func ParseDepartment(code int) (Department, error) {
	d := Department(code)
	for _, known := range departmentSet {
		if d == known {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownDepartment, code)
}

func (d Department) Valid() bool {
	if d == DeptAll {
		return true
	}
	_, err := ParseDepartment(int(d))
	return err == nil
}

// ReportSheet distinguishes the two sheets of the accounting export
// (出力帳票 column).
type ReportSheet int

const (
	SheetMain          ReportSheet = 0 // 損益計算書本体
	SheetCostBreakdown ReportSheet = 1 // 製造原価内訳
)

// AccountCode is an item code from the chart of accounts (4 digits).
type AccountCode int

// ParseAccountCode parses a 4-digit account code field.
func ParseAccountCode(s string) (AccountCode, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil || n < 1000 || n > 9999 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAccount, s)
	}
	return AccountCode(n), nil
}

// Period identifies one monthly P&L export.
type Period struct {
	Year  int
	Month time.Month
}

var periodPattern = regexp.MustCompile(`(\d{4})_(\d{2})_`)

// PeriodFromFilename extracts the period from a file name following the
// YYYY_MM_<report-name>.csv convention. ok is false when the name does not
// match.
func PeriodFromFilename(name string) (Period, bool) {
	m := periodPattern.FindStringSubmatch(name)
	if m == nil {
		return Period{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	p := Period{Year: year, Month: time.Month(month)}
	if err := p.Validate(); err != nil {
		return Period{}, false
	}
	return p, true
}

// ParsePeriod parses the display form "2025/07". Also accepted: "2025-07"
// and "202507" as emitted by the 開始年月 column.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	var year, month int
	switch {
	case strings.Contains(s, "/"):
		fmt.Sscanf(s, "%d/%d", &year, &month)
	case strings.Contains(s, "-"):
		fmt.Sscanf(s, "%d-%d", &year, &month)
	case len(s) == 6:
		year, _ = strconv.Atoi(s[:4])
		month, _ = strconv.Atoi(s[4:])
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	p := Period{Year: year, Month: time.Month(month)}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	return nil
}

func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

// String renders the display form used throughout the dashboard, e.g.
// "2025/07".
func (p Period) String() string {
	return fmt.Sprintf("%04d/%02d", p.Year, int(p.Month))
}

// Before reports chronological order.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// Record is one parsed CSV row. Immutable once parsed.
type Record struct {
	Department  Department
	DeptName    string
	Sheet       ReportSheet
	Account     AccountCode
	AccountName string
	Amount      Yen
}

// Dataset holds the records of exactly one period.
type Dataset struct {
	Period  Period
	Records []Record
	Sources []string // file names this dataset was built from
}

// DepartmentsIn returns the departments that actually have rows, in code
// order.
func (ds Dataset) DepartmentsIn() []Department {
	seen := map[Department]bool{}
	for _, r := range ds.Records {
		seen[r.Department] = true
	}
	out := make([]Department, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortPeriods orders datasets chronologically in place.
func SortPeriods(datasets []Dataset) {
	sort.Slice(datasets, func(i, j int) bool {
		return datasets[i].Period.Before(datasets[j].Period)
	})
}

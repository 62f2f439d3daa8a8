package processor

import (
	"math"
	"testing"
	"time"

	"github.com/hatauchi-tech/Fukui-BI/internal/core"
)

var july = core.Period{Year: 2025, Month: time.July}

func record(d core.Department, sheet core.ReportSheet, code core.AccountCode, name string, amount core.Yen) core.Record {
	return core.Record{Department: d, Sheet: sheet, Account: code, AccountName: name, Amount: amount}
}

func fixture() core.Dataset {
	return core.Dataset{
		Period: july,
		Records: []core.Record{
			record(core.DeptHeadOffice, core.SheetMain, 4199, "売上高", 1000000),
			record(core.DeptHeadOffice, core.SheetMain, 5399, "売上原価", -600000), // (600,000) in the export
			record(core.DeptHeadOffice, core.SheetMain, 6299, "販管費計", 250000),
			record(core.DeptHeadOffice, core.SheetMain, 8000, "経常利益", 145000),
			record(core.DeptHeadOffice, core.SheetMain, 9000, "当期利益", 100000),

			record(core.DeptFukuiPlant, core.SheetMain, 4199, "売上高", 500000),
			record(core.DeptFukuiPlant, core.SheetMain, 5399, "売上原価", 300000),
			record(core.DeptFukuiPlant, core.SheetMain, 5299, "当期製品製造原価", 280000),
			record(core.DeptFukuiPlant, core.SheetCostBreakdown, 5419, "材料費計", 150000),
			record(core.DeptFukuiPlant, core.SheetCostBreakdown, 5439, "労務費計", 90000),
			record(core.DeptFukuiPlant, core.SheetCostBreakdown, 5469, "経費計", 40000),
			record(core.DeptFukuiPlant, core.SheetMain, 6105, "旅費交通費", 30000),
			record(core.DeptFukuiPlant, core.SheetMain, 6110, "通信費", 12000),
		},
	}
}

func findSummary(t *testing.T, rows []core.Summary, d core.Department) core.Summary {
	t.Helper()
	for _, s := range rows {
		if s.Department == d {
			return s
		}
	}
	t.Fatalf("no summary row for department %d", d)
	return core.Summary{}
}

func TestSummarizeSpecExample(t *testing.T) {
	// (4199, 1,000,000) and (5399, "(600,000)") must yield sales 1,000,000,
	// cost 600,000 and gross profit 400,000.
	p := New(nil)
	rows, _ := p.Summarize([]core.Dataset{fixture()}, nil)

	s := findSummary(t, rows, core.DeptHeadOffice)
	if s.Sales != 1000000 {
		t.Fatalf("sales = %d", s.Sales)
	}
	if s.Cost != 600000 {
		t.Fatalf("cost = %d, want positive 600000", s.Cost)
	}
	if s.GrossProfit != 400000 {
		t.Fatalf("gross = %d", s.GrossProfit)
	}
	if s.OperatingProfit != 150000 {
		t.Fatalf("operating = %d, want gross - sga", s.OperatingProfit)
	}
	if s.OrdinaryProfit != 145000 || s.NetProfit != 100000 {
		t.Fatalf("ordinary/net = %d/%d", s.OrdinaryProfit, s.NetProfit)
	}
}

func TestSummarizeInvariants(t *testing.T) {
	p := New(nil)
	rows, _ := p.Summarize([]core.Dataset{fixture()}, nil)

	var deptSales core.Yen
	var total core.Summary
	for _, s := range rows {
		if s.GrossProfit != s.Sales-s.Cost {
			t.Fatalf("%s: gross %d != sales %d - cost %d", s.DeptName, s.GrossProfit, s.Sales, s.Cost)
		}
		if s.OperatingProfit != s.GrossProfit-s.SGA {
			t.Fatalf("%s: operating %d != gross %d - sga %d", s.DeptName, s.OperatingProfit, s.GrossProfit, s.SGA)
		}
		if s.Department == core.DeptAll {
			total = s
		} else {
			deptSales += s.Sales
		}
	}
	if total.Department != core.DeptAll {
		t.Fatal("no aggregate row produced")
	}
	if deptSales != total.Sales {
		t.Fatalf("sum of department sales %d != aggregate sales %d", deptSales, total.Sales)
	}
	if total.Sales != 1500000 || total.Cost != 900000 {
		t.Fatalf("aggregate = %+v", total)
	}
}

func TestSummarizeAbsentDepartmentIsZeroRow(t *testing.T) {
	p := New(nil)
	rows, _ := p.Summarize([]core.Dataset{fixture()}, nil)

	// Every fixed department appears even without rows; 8 depts + aggregate.
	if len(rows) != len(core.Departments())+1 {
		t.Fatalf("rows = %d, want %d", len(rows), len(core.Departments())+1)
	}
	s := findSummary(t, rows, core.DeptLogistics)
	if s.Sales != 0 || s.Cost != 0 || s.GrossProfit != 0 || s.NetProfit != 0 {
		t.Fatalf("absent department should be all zeros: %+v", s)
	}
	if !s.CostRatio.IsNaN() {
		t.Fatalf("zero-sales cost ratio = %v, want NaN", s.CostRatio)
	}
}

func TestSummarizeZeroSalesWarnsDivisionByZero(t *testing.T) {
	p := New(nil)
	_, ws := p.Summarize([]core.Dataset{fixture()}, []core.Department{core.DeptLogistics})
	if ws.Count(core.WarnDivisionByZero) == 0 {
		t.Fatal("expected a division-by-zero warning for zero sales")
	}
}

func TestSummarizeSalesShare(t *testing.T) {
	p := New(nil)
	rows, _ := p.Summarize([]core.Dataset{fixture()}, nil)

	ho := findSummary(t, rows, core.DeptHeadOffice)
	want := 1000000.0 / 1500000.0 * 100
	if math.Abs(float64(ho.SalesShare)-want) > 1e-9 {
		t.Fatalf("sales share = %v, want %v", ho.SalesShare, want)
	}
	total := findSummary(t, rows, core.DeptAll)
	if float64(total.SalesShare) != 100 {
		t.Fatalf("aggregate share = %v, want 100", total.SalesShare)
	}
}

func TestCompany(t *testing.T) {
	p := New(nil)
	s, _ := p.Company([]core.Dataset{fixture()}, july)
	if s.Department != core.DeptAll || s.Sales != 1500000 {
		t.Fatalf("company summary = %+v", s)
	}
}

func TestSGABreakdown(t *testing.T) {
	p := New(nil)
	got := p.SGABreakdown([]core.Dataset{fixture()}, core.DeptAll, july)
	if len(got) != 2 {
		t.Fatalf("breakdown rows = %d, want 2: %v", len(got), got)
	}
	// Descending by amount.
	if got[0].Account != 6105 || got[0].Amount != 30000 {
		t.Fatalf("first row = %+v", got[0])
	}
	if got[1].Account != 6110 {
		t.Fatalf("second row = %+v", got[1])
	}
	// Cumulative 6299 must not leak into the detail.
	for _, aa := range got {
		if aa.Account == 6299 {
			t.Fatal("6299 marker leaked into SG&A detail")
		}
	}
}

func TestCostStructure(t *testing.T) {
	p := New(nil)
	cs := p.CostStructure([]core.Dataset{fixture()}, core.DeptFukuiPlant, july)
	want := core.CostStructure{Material: 150000, Labor: 90000, Expense: 40000, MfgTotal: 280000}
	if cs != want {
		t.Fatalf("cost structure = %+v, want %+v", cs, want)
	}

	// A department without a cost-breakdown sheet yields zeros.
	if cs := p.CostStructure([]core.Dataset{fixture()}, core.DeptHeadOffice, july); cs != (core.CostStructure{}) {
		t.Fatalf("head office cost structure = %+v, want zeros", cs)
	}
}

func TestDetails(t *testing.T) {
	p := New(nil)
	rows := p.Details([]core.Dataset{fixture()}, core.DeptFukuiPlant, july, core.SheetCostBreakdown)
	if len(rows) != 3 {
		t.Fatalf("detail rows = %d, want 3", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Account > rows[i].Account {
			t.Fatalf("detail rows not sorted: %v", rows)
		}
	}
}

func TestPeriods(t *testing.T) {
	aug := core.Period{Year: 2025, Month: time.August}
	got := Periods([]core.Dataset{{Period: aug}, {Period: july}})
	if len(got) != 2 || got[0] != july || got[1] != aug {
		t.Fatalf("Periods = %v", got)
	}
}

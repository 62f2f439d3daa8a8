// Package processor derives summary figures from loaded datasets.
//
// Everything here is a pure function over the datasets it is handed: no
// state, no caching, recomputed on every call. Role values are summed over
// the account-code ranges the chart binds them to; gross and operating
// profit are always recomputed from their components rather than trusted
// from the export, which guards against inconsistent source data.
package processor

import (
	"fmt"
	"sort"

	"github.com/hatauchi-tech/Fukui-BI/internal/accounts"
	"github.com/hatauchi-tech/Fukui-BI/internal/core"
)

type Processor struct {
	chart *accounts.Chart
}

func New(chart *accounts.Chart) *Processor {
	if chart == nil {
		chart = accounts.Default()
	}
	return &Processor{chart: chart}
}

// Chart returns the chart of accounts in use.
func (p *Processor) Chart() *accounts.Chart { return p.chart }

// Summarize produces one summary row per requested department per period,
// plus a company-wide aggregate row (Department == DeptAll) per period. A
// department with no rows in a period still yields a zero-valued summary so
// table and chart axes stay stable across periods. When depts is empty the
// full fixed department set is used.
func (p *Processor) Summarize(datasets []core.Dataset, depts []core.Department) ([]core.Summary, core.Warnings) {
	if len(depts) == 0 {
		depts = core.Departments()
	}

	var (
		out      []core.Summary
		warnings core.Warnings
	)
	for _, ds := range datasets {
		var total core.Summary
		total.Period = ds.Period
		total.PeriodName = ds.Period.String()
		total.Department = core.DeptAll
		total.DeptName = p.chart.DeptName(core.DeptAll)

		rows := make([]core.Summary, 0, len(depts))
		for _, d := range depts {
			s := p.summarizeDept(ds, d)
			total.Sales += s.Sales
			total.Cost += s.Cost
			total.SGA += s.SGA
			total.OrdinaryProfit += s.OrdinaryProfit
			total.NetProfit += s.NetProfit
			rows = append(rows, s)
		}
		finishSummary(&total)

		for i := range rows {
			rows[i].SalesShare = core.PercentOf(rows[i].Sales, total.Sales)
			out = append(out, rows[i])
			if rows[i].CostRatio.IsNaN() {
				warnings = append(warnings, core.Warning{
					Kind: core.WarnDivisionByZero,
					Message: fmt.Sprintf("%s %s: ratios undefined, sales is zero",
						ds.Period, rows[i].DeptName),
				})
			}
		}
		total.SalesShare = core.PercentOf(total.Sales, total.Sales)
		out = append(out, total)
		if total.CostRatio.IsNaN() {
			warnings = append(warnings, core.Warning{
				Kind:    core.WarnDivisionByZero,
				Message: fmt.Sprintf("%s 全社: ratios undefined, sales is zero", ds.Period),
			})
		}
	}
	return out, warnings
}

func (p *Processor) summarizeDept(ds core.Dataset, d core.Department) core.Summary {
	s := core.Summary{
		Period:     ds.Period,
		PeriodName: ds.Period.String(),
		Department: d,
		DeptName:   p.chart.DeptName(d),
	}
	s.Sales = p.roleValue(ds, d, accounts.RoleSales)
	s.Cost = p.roleValue(ds, d, accounts.RoleCostOfSales)
	s.SGA = p.roleValue(ds, d, accounts.RoleSGA)
	s.OrdinaryProfit = p.roleValue(ds, d, accounts.RoleOrdinaryProfit)
	s.NetProfit = p.roleValue(ds, d, accounts.RoleNetProfit)
	finishSummary(&s)
	return s
}

// finishSummary recomputes the derived profits and ratios from the summed
// components.
func finishSummary(s *core.Summary) {
	s.GrossProfit = s.Sales - s.Cost
	s.OperatingProfit = s.GrossProfit - s.SGA
	s.CostRatio = core.PercentOf(s.Cost, s.Sales)
	s.GrossMargin = core.PercentOf(s.GrossProfit, s.Sales)
	s.OperatingMargin = core.PercentOf(s.OperatingProfit, s.Sales)
	s.OrdinaryMargin = core.PercentOf(s.OrdinaryProfit, s.Sales)
	s.NetMargin = core.PercentOf(s.NetProfit, s.Sales)
}

// roleValue sums the records the chart binds to a role, for one department
// (or all of them with DeptAll).
func (p *Processor) roleValue(ds core.Dataset, d core.Department, role accounts.Role) core.Yen {
	bindings := p.chart.BindingsFor(role)
	var sum core.Yen
	absolute := false
	for _, r := range ds.Records {
		if d != core.DeptAll && r.Department != d {
			continue
		}
		for _, b := range bindings {
			if b.Contains(r.Sheet, r.Account) {
				sum += r.Amount
				absolute = absolute || b.Absolute
				break
			}
		}
	}
	if absolute {
		return sum.Abs()
	}
	return sum
}

// Company returns the aggregate summary row for one period.
func (p *Processor) Company(datasets []core.Dataset, period core.Period) (core.Summary, core.Warnings) {
	rows, ws := p.Summarize(filterPeriod(datasets, period), nil)
	for _, s := range rows {
		if s.Department == core.DeptAll {
			return s, ws
		}
	}
	s := core.Summary{Period: period, PeriodName: period.String(), Department: core.DeptAll, DeptName: p.chart.DeptName(core.DeptAll)}
	finishSummary(&s)
	return s, ws
}

// SGABreakdown lists the nonzero SG&A detail accounts for a department and
// period, descending by amount. DeptAll spans all departments; a zero
// period spans all loaded periods.
func (p *Processor) SGABreakdown(datasets []core.Dataset, d core.Department, period core.Period) []core.AccountAmount {
	bindings := p.chart.BindingsFor(accounts.RoleSGADetail)
	sums := map[core.AccountCode]core.Yen{}
	names := map[core.AccountCode]string{}
	for _, ds := range filterPeriod(datasets, period) {
		for _, r := range ds.Records {
			if d != core.DeptAll && r.Department != d {
				continue
			}
			for _, b := range bindings {
				if b.Contains(r.Sheet, r.Account) {
					sums[r.Account] += r.Amount
					if names[r.Account] == "" {
						names[r.Account] = r.AccountName
					}
					break
				}
			}
		}
	}

	out := make([]core.AccountAmount, 0, len(sums))
	for code, amount := range sums {
		if amount == 0 {
			continue
		}
		out = append(out, core.AccountAmount{Account: code, Name: names[code], Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Account < out[j].Account
	})
	return out
}

// CostStructure returns the manufacturing cost composition: material, labor
// and expense from the cost-breakdown sheet, total manufacturing cost from
// the main sheet.
func (p *Processor) CostStructure(datasets []core.Dataset, d core.Department, period core.Period) core.CostStructure {
	scoped := filterPeriod(datasets, period)
	var cs core.CostStructure
	for _, ds := range scoped {
		cs.Material += p.roleValue(ds, d, accounts.RoleMaterialCost)
		cs.Labor += p.roleValue(ds, d, accounts.RoleLaborCost)
		cs.Expense += p.roleValue(ds, d, accounts.RoleExpenseCost)
		cs.MfgTotal += p.roleValue(ds, d, accounts.RoleMfgCost)
	}
	return cs
}

// Details returns the raw rows for a department, period and sheet, sorted by
// department then account code, for the detail table view.
func (p *Processor) Details(datasets []core.Dataset, d core.Department, period core.Period, sheet core.ReportSheet) []core.Record {
	var out []core.Record
	for _, ds := range filterPeriod(datasets, period) {
		for _, r := range ds.Records {
			if d != core.DeptAll && r.Department != d {
				continue
			}
			if r.Sheet != sheet {
				continue
			}
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Department != out[j].Department {
			return out[i].Department < out[j].Department
		}
		return out[i].Account < out[j].Account
	})
	return out
}

// Periods lists the loaded periods in chronological order.
func Periods(datasets []core.Dataset) []core.Period {
	out := make([]core.Period, 0, len(datasets))
	for _, ds := range datasets {
		out = append(out, ds.Period)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func filterPeriod(datasets []core.Dataset, period core.Period) []core.Dataset {
	if period.IsZero() {
		return datasets
	}
	var out []core.Dataset
	for _, ds := range datasets {
		if ds.Period == period {
			out = append(out, ds)
		}
	}
	return out
}

package core

import (
	"encoding/json"
	"math"
)

// Ratio is a percentage that may be undefined (NaN) when the denominator was
// zero. It marshals to JSON null instead of failing like a bare NaN float.
type Ratio float64

// NaNRatio is the undefined ratio.
func NaNRatio() Ratio { return Ratio(math.NaN()) }

func (r Ratio) IsNaN() bool { return math.IsNaN(float64(r)) }

func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.IsNaN() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = NaNRatio()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// PercentOf returns num/den as a percentage, NaN when den is zero.
func PercentOf(num, den Yen) Ratio {
	if den == 0 {
		return NaNRatio()
	}
	return Ratio(float64(num) / float64(den) * 100)
}

// Summary is the derived figure set for one (period, department) pair.
// Department is DeptAll for the company-wide aggregate row.
//
// Invariants maintained by the processor: GrossProfit = Sales - Cost and
// OperatingProfit = GrossProfit - SGA, always recomputed from the inputs.
type Summary struct {
	Period     Period     `json:"-"`
	PeriodName string     `json:"period"`
	Department Department `json:"department"`
	DeptName   string     `json:"department_name"`

	Sales           Yen `json:"sales"`
	Cost            Yen `json:"cost_of_sales"`
	GrossProfit     Yen `json:"gross_profit"`
	SGA             Yen `json:"sga"`
	OperatingProfit Yen `json:"operating_profit"`
	OrdinaryProfit  Yen `json:"ordinary_profit"`
	NetProfit       Yen `json:"net_profit"`

	CostRatio       Ratio `json:"cost_ratio"`
	GrossMargin     Ratio `json:"gross_margin"`
	OperatingMargin Ratio `json:"operating_margin"`
	OrdinaryMargin  Ratio `json:"ordinary_margin"`
	NetMargin       Ratio `json:"net_margin"`
	SalesShare      Ratio `json:"sales_share"`
}

// AccountAmount is one line of a breakdown table (SG&A detail and similar).
type AccountAmount struct {
	Account AccountCode `json:"account"`
	Name    string      `json:"name"`
	Amount  Yen         `json:"amount"`
}

// CostStructure is the manufacturing cost composition for one department
// and period.
type CostStructure struct {
	Material Yen `json:"material_cost"`
	Labor    Yen `json:"labor_cost"`
	Expense  Yen `json:"expense_cost"`
	MfgTotal Yen `json:"manufacturing_cost"`
}

// Package accounts models the chart of accounts as configuration data.
//
// Summary roles are bound to account code ranges instead of being branched
// on in code, so chart-of-accounts changes (new codes, shifted ranges) only
// touch the table or an override file.
package accounts

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hatauchi-tech/Fukui-BI/internal/core"
)

// Role is a summary figure the chart can bind account codes to.
type Role string

const (
	RoleSales           Role = "sales"
	RoleCostOfSales     Role = "cost_of_sales"
	RoleGrossProfit     Role = "gross_profit"
	RoleSGA             Role = "sga"
	RoleOperatingProfit Role = "operating_profit"
	RoleOrdinaryProfit  Role = "ordinary_profit"
	RoleNetProfit       Role = "net_profit"
	RoleMaterialCost    Role = "material_cost"
	RoleLaborCost       Role = "labor_cost"
	RoleExpenseCost     Role = "expense_cost"
	RoleMfgCost         Role = "mfg_cost"
	RoleSGADetail       Role = "sga_detail"
)

// Binding ties a role to an account code range on one report sheet.
// Absolute-valued roles (expense figures) report positive magnitudes even
// when the export carries them as accounting negatives.
type Binding struct {
	Role     Role             `json:"role"`
	Sheet    core.ReportSheet `json:"sheet"`
	From     core.AccountCode `json:"from"`
	To       core.AccountCode `json:"to"`
	Absolute bool             `json:"absolute,omitempty"`
}

// Contains reports whether the binding covers the given row coordinates.
func (b Binding) Contains(sheet core.ReportSheet, code core.AccountCode) bool {
	return sheet == b.Sheet && code >= b.From && code <= b.To
}

// Chart is the full account-code-to-role mapping plus department display
// names.
type Chart struct {
	Bindings  []Binding                  `json:"bindings"`
	DeptNames map[core.Department]string `json:"department_names"`
}

// Default returns the chart matching the accounting system's standard
// export. The profit figures are cumulative marker rows, so each role binds
// a single code; SG&A detail spans the 6000 range.
func Default() *Chart {
	return &Chart{
		Bindings: []Binding{
			{Role: RoleSales, Sheet: core.SheetMain, From: 4199, To: 4199},
			{Role: RoleCostOfSales, Sheet: core.SheetMain, From: 5399, To: 5399, Absolute: true},
			{Role: RoleGrossProfit, Sheet: core.SheetMain, From: 5400, To: 5400},
			{Role: RoleSGA, Sheet: core.SheetMain, From: 6299, To: 6299, Absolute: true},
			{Role: RoleOperatingProfit, Sheet: core.SheetMain, From: 7000, To: 7000},
			{Role: RoleOrdinaryProfit, Sheet: core.SheetMain, From: 8000, To: 8000},
			{Role: RoleNetProfit, Sheet: core.SheetMain, From: 9000, To: 9000},
			{Role: RoleMfgCost, Sheet: core.SheetMain, From: 5299, To: 5299, Absolute: true},
			{Role: RoleMaterialCost, Sheet: core.SheetCostBreakdown, From: 5419, To: 5419, Absolute: true},
			{Role: RoleLaborCost, Sheet: core.SheetCostBreakdown, From: 5439, To: 5439, Absolute: true},
			{Role: RoleExpenseCost, Sheet: core.SheetCostBreakdown, From: 5469, To: 5469, Absolute: true},
			{Role: RoleSGADetail, Sheet: core.SheetMain, From: 6000, To: 6298},
		},
		DeptNames: map[core.Department]string{
			core.DeptAll:        "全社",
			core.DeptHeadOffice: "本社営業部",
			core.DeptFukuiSales: "福井営業部",
			core.DeptTokyoSales: "東京営業部",
			core.DeptOsakaSales: "大阪営業部",
			core.DeptFukuiPlant: "福井工場",
			core.DeptSabaePlant: "鯖江工場",
			core.DeptLogistics:  "物流部",
			core.DeptCommon:     "共通部門",
		},
	}
}

// LoadFile reads a chart override from a JSON file. Department names fall
// back to the defaults for codes the file does not name.
func LoadFile(path string) (*Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart file: %w", err)
	}
	var c Chart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse chart file %s: %w", path, err)
	}
	if len(c.Bindings) == 0 {
		return nil, fmt.Errorf("chart file %s has no bindings", path)
	}
	defaults := Default()
	if c.DeptNames == nil {
		c.DeptNames = defaults.DeptNames
	} else {
		for d, name := range defaults.DeptNames {
			if _, ok := c.DeptNames[d]; !ok {
				c.DeptNames[d] = name
			}
		}
	}
	return &c, nil
}

// BindingsFor returns every binding of the given role, preserving table
// order.
func (c *Chart) BindingsFor(role Role) []Binding {
	var out []Binding
	for _, b := range c.Bindings {
		if b.Role == role {
			out = append(out, b)
		}
	}
	return out
}

// DeptName resolves the display name for a department, falling back to the
// numeric code.
func (c *Chart) DeptName(d core.Department) string {
	if name, ok := c.DeptNames[d]; ok {
		return name
	}
	return fmt.Sprintf("%d", int(d))
}

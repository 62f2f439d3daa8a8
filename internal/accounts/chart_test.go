package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hatauchi-tech/Fukui-BI/internal/core"
)

func TestDefaultChartBindings(t *testing.T) {
	c := Default()

	cases := []struct {
		role  Role
		sheet core.ReportSheet
		code  core.AccountCode
	}{
		{RoleSales, core.SheetMain, 4199},
		{RoleCostOfSales, core.SheetMain, 5399},
		{RoleSGA, core.SheetMain, 6299},
		{RoleOrdinaryProfit, core.SheetMain, 8000},
		{RoleNetProfit, core.SheetMain, 9000},
		{RoleMaterialCost, core.SheetCostBreakdown, 5419},
		{RoleSGADetail, core.SheetMain, 6105},
	}
	for _, tc := range cases {
		bs := c.BindingsFor(tc.role)
		if len(bs) == 0 {
			t.Fatalf("no bindings for role %s", tc.role)
		}
		found := false
		for _, b := range bs {
			if b.Contains(tc.sheet, tc.code) {
				found = true
			}
		}
		if !found {
			t.Fatalf("role %s does not cover sheet %d code %d", tc.role, tc.sheet, tc.code)
		}
	}

	// The SG&A detail range must not swallow the cumulative 6299 marker.
	for _, b := range c.BindingsFor(RoleSGADetail) {
		if b.Contains(core.SheetMain, 6299) {
			t.Fatalf("sga_detail range includes the 6299 marker")
		}
	}
}

func TestDeptName(t *testing.T) {
	c := Default()
	if c.DeptName(core.DeptAll) != "全社" {
		t.Fatalf("DeptName(all) = %q", c.DeptName(core.DeptAll))
	}
	if c.DeptName(core.Department(123)) != "123" {
		t.Fatalf("unknown dept should fall back to code, got %q", c.DeptName(core.Department(123)))
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.json")
	content := `{
		"bindings": [
			{"role": "sales", "sheet": 0, "from": 4000, "to": 4198}
		],
		"department_names": {"210": "第一営業部"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	bs := c.BindingsFor(RoleSales)
	if len(bs) != 1 || !bs[0].Contains(core.SheetMain, 4100) {
		t.Fatalf("override binding not applied: %v", bs)
	}
	if c.DeptName(core.DeptHeadOffice) != "第一営業部" {
		t.Fatalf("override dept name not applied: %q", c.DeptName(core.DeptHeadOffice))
	}
	// Codes the file does not name keep their default names.
	if c.DeptName(core.DeptCommon) != "共通部門" {
		t.Fatalf("default dept name lost: %q", c.DeptName(core.DeptCommon))
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

package core

import (
	"testing"
	"time"
)

func TestParseDepartment(t *testing.T) {
	for _, code := range []int{210, 220, 230, 240, 250, 260, 270, 900} {
		d, err := ParseDepartment(code)
		if err != nil {
			t.Fatalf("ParseDepartment(%d) = %v, want ok", code, err)
		}
		if int(d) != code {
			t.Fatalf("ParseDepartment(%d) = %d", code, d)
		}
	}
	for _, code := range []int{0, 100, 215, 280, 999, -210} {
		if _, err := ParseDepartment(code); err == nil {
			t.Fatalf("ParseDepartment(%d) expected error", code)
		}
	}
}

func TestPeriodFromFilename(t *testing.T) {
	cases := []struct {
		name string
		want string
		ok   bool
	}{
		{"2025_07_損益計算書.csv", "2025/07", true},
		{"2024_12_損益計算書.csv", "2024/12", true},
		{"prefix_2025_08_suffix.csv", "2025/08", true},
		{"invalid_filename.csv", "", false},
		{"2025_13_損益計算書.csv", "", false},
		{"202507_損益計算書.csv", "", false},
	}
	for _, tc := range cases {
		p, ok := PeriodFromFilename(tc.name)
		if ok != tc.ok {
			t.Fatalf("PeriodFromFilename(%q) ok = %v, want %v", tc.name, ok, tc.ok)
		}
		if ok && p.String() != tc.want {
			t.Fatalf("PeriodFromFilename(%q) = %s, want %s", tc.name, p, tc.want)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in   string
		want Period
		ok   bool
	}{
		{"2025/07", Period{2025, time.July}, true},
		{"2025-07", Period{2025, time.July}, true},
		{"202507", Period{2025, time.July}, true},
		{"garbage", Period{}, false},
		{"2025/00", Period{}, false},
	}
	for _, tc := range cases {
		p, err := ParsePeriod(tc.in)
		if tc.ok && (err != nil || p != tc.want) {
			t.Fatalf("ParsePeriod(%q) = %v, %v; want %v", tc.in, p, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParsePeriod(%q) expected error", tc.in)
		}
	}
}

func TestParseAccountCode(t *testing.T) {
	if c, err := ParseAccountCode(" 4199 "); err != nil || c != 4199 {
		t.Fatalf("ParseAccountCode(4199) = %v, %v", c, err)
	}
	for _, bad := range []string{"", "abc", "99", "12345"} {
		if _, err := ParseAccountCode(bad); err == nil {
			t.Fatalf("ParseAccountCode(%q) expected error", bad)
		}
	}
}

func TestDatasetDepartmentsIn(t *testing.T) {
	ds := Dataset{Records: []Record{
		{Department: DeptCommon},
		{Department: DeptHeadOffice},
		{Department: DeptHeadOffice},
		{Department: DeptTokyoSales},
	}}
	got := ds.DepartmentsIn()
	want := []Department{DeptHeadOffice, DeptTokyoSales, DeptCommon}
	if len(got) != len(want) {
		t.Fatalf("DepartmentsIn = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DepartmentsIn = %v, want %v", got, want)
		}
	}
}

func TestPeriodBefore(t *testing.T) {
	a := Period{2024, time.December}
	b := Period{2025, time.January}
	if !a.Before(b) || b.Before(a) {
		t.Fatalf("period ordering wrong for %s vs %s", a, b)
	}
}

package core

import "testing"

func TestParseYen(t *testing.T) {
	cases := []struct {
		in   string
		want Yen
		ok   bool
	}{
		{"1,000,000", 1000000, true},
		{"(600,000)", -600000, true},
		{"-600,000", -600000, true},
		{"600000", 600000, true},
		{"+42", 42, true},
		{"0", 0, true},
		{"", 0, true}, // blank cells mean no amount
		{"  12,345 ", 12345, true},
		{"( 500 )", -500, true},
		{"(-500)", 500, true}, // parens and minus cancel
		{"abc", 0, false},
		{"12.5", 0, false},
		{"()", 0, false},
		{"--5", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseYen(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseYen(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseYen(%q) expected error, got %d", tc.in, got)
		}
	}
}

func TestYenFormatRoundTrip(t *testing.T) {
	values := []Yen{0, 1, 999, 1000, 12345, 1000000, -600000, -1, -999999999}
	for _, v := range values {
		s := v.Format()
		back, err := ParseYen(s)
		if err != nil {
			t.Fatalf("ParseYen(Format(%d)) = error %v (formatted %q)", v, err, s)
		}
		if back != v {
			t.Fatalf("round trip %d -> %q -> %d", v, s, back)
		}
	}
	if got := Yen(1234567).Format(); got != "1,234,567" {
		t.Fatalf("Format(1234567) = %q", got)
	}
	if got := Yen(-600000).Format(); got != "-600,000" {
		t.Fatalf("Format(-600000) = %q", got)
	}
}

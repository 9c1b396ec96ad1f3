package core

import (
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.345", 1235, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0,001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		m     Money
		dot   string
		comma string
	}{
		{Money{Cents: 1250}, "12.50", "12,50"},
		{Money{Cents: 5}, "0.05", "0,05"},
		{Money{Cents: -500}, "-5.00", "-5,00"},
		{Money{Cents: 123456}, "1234.56", "1234,56"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.dot {
			t.Fatalf("String(%d) = %q, want %q", tc.m.Cents, got, tc.dot)
		}
		if got := tc.m.Comma(); got != tc.comma {
			t.Fatalf("Comma(%d) = %q, want %q", tc.m.Cents, got, tc.comma)
		}
	}
}

func TestMoneyBRL(t *testing.T) {
	got := Money{Cents: 1250}.BRL()
	if !strings.HasPrefix(got, "R$ ") || !strings.HasSuffix(got, "12,50") {
		t.Fatalf("BRL() = %q", got)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

package util

import (
	"reflect"
	"testing"
)

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("42", 7); got != 42 {
		t.Fatalf("ParseIntDefault(42) = %d", got)
	}
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("ParseIntDefault(empty) = %d", got)
	}
	if got := ParseIntDefault("nope", 7); got != 7 {
		t.Fatalf("ParseIntDefault(invalid) = %d", got)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol("  aapl "); got != "AAPL" {
		t.Fatalf("NormalizeSymbol = %q", got)
	}
	if got := NormalizeSymbol("   "); got != "" {
		t.Fatalf("NormalizeSymbol(blank) = %q", got)
	}
}

func TestSplitCSV(t *testing.T) {
	got := SplitCSV("AAPL, tsla ,,MSFT ")
	want := []string{"AAPL", "tsla", "MSFT"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitCSV = %v, want %v", got, want)
	}
	if SplitCSV("") != nil {
		t.Fatalf("SplitCSV(empty) should be nil")
	}
}

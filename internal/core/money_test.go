package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "dot separator", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "integer", input: "12", want: 1200},
		{name: "single fractional digit", input: "12.3", want: 1230},
		{name: "third digit rounds down", input: "12.344", want: 1234},
		{name: "third digit rounds up", input: "12.346", want: 1235},
		{name: "negative amount", input: "-5", want: -500},
		{name: "negative with fraction", input: "-0.99", want: -99},
		{name: "explicit plus", input: "+7.50", want: 750},
		{name: "zero", input: "0", want: 0},
		{name: "leading dot", input: ".50", want: 50},
		{name: "whitespace", input: "  12.34  ", want: 1234},
		{name: "empty", input: "", wantErr: true},
		{name: "bare sign", input: "-", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
		{name: "mixed digits", input: "12a.34", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyFromFloat(t *testing.T) {
	tests := []struct {
		input float64
		want  int64
	}{
		{19.99, 1999},
		{0.1, 10},
		{100, 10000},
		{-12.5, -1250},
		{0, 0},
	}

	for _, tt := range tests {
		if got := MoneyFromFloat(tt.input); got.Cents != tt.want {
			t.Errorf("MoneyFromFloat(%v) = %d cents, want %d", tt.input, got.Cents, tt.want)
		}
	}
}

func TestMoneyDecimal(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{1200, "12.00"},
		{5, "0.05"},
		{-99, "-0.99"},
		{0, "0.00"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).Decimal(); got != tt.want {
			t.Errorf("Money{%d}.Decimal() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	in := Money{Cents: 1999}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "19.99" {
		t.Fatalf("marshal = %s, want 19.99", data)
	}

	var out Money
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Cents != in.Cents {
		t.Errorf("round trip = %d cents, want %d", out.Cents, in.Cents)
	}

	// Extractor output can quote amounts
	if err := json.Unmarshal([]byte(`"7,50"`), &out); err != nil {
		t.Fatalf("unmarshal quoted: %v", err)
	}
	if out.Cents != 750 {
		t.Errorf("quoted amount = %d cents, want 750", out.Cents)
	}
}

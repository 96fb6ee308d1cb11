package amount

import "testing"

func TestAmountString(t *testing.T) {
	cases := []struct {
		amount Amount
		want   string
	}{
		{0, "0.0"},
		{1, "0.000000001"},
		{12, "0.000000012"},
		{1234, "0.000001234"},
		{123000000000, "123.0"},
		{123456789, "0.123456789"},
		{1234567898, "1.234567898"},
		{123456789987654321, "123456789.987654321"},
	}
	for _, c := range cases {
		if got := c.amount.String(); got != c.want {
			t.Errorf("Amount(%d).String() = %q, want %q", c.amount, got, c.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	valid := []struct {
		in   string
		want Amount
	}{
		{"0", 0},
		{"0.", 0},
		{"0.0", 0},
		{"1", 1000000000},
		{"1.", 1000000000},
		{"1.0", 1000000000},
		{"123", 123000000000},
		{"123.", 123000000000},
		{"123.0", 123000000000},
		{"123.1", 123100000000},
		{"123.100", 123100000000},
		{"123.100000000", 123100000000},
		{"123.123456", 123123456000},
		{"123.123456000", 123123456000},
		{"123.123456789", 123123456789},
		{"123.0001", 123000100000},
		{"123.000000001", 123000000001},
		{"0.0001", 100000},
		{"0.000000001", 1},
		{".0001", 100000},
		{".000000001", 1},
		{".123456789", 123456789},
		{" 123 ", 123000000000},
		{" 123.456 ", 123456000000},
	}
	for _, c := range valid {
		got, err := ParseAmount(c.in)
		if err != nil {
			t.Errorf("ParseAmount(%q) returned error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseAmount(%q) = %d, want %d", c.in, got, c.want)
		}
	}

	invalid := []string{
		"123.234.123",
		"k123",
		"12 34",
		".",
		" . ",
		"12 .",
		". 12",
		"123.0000000001",
	}
	for _, in := range invalid {
		if _, err := ParseAmount(in); err == nil {
			t.Errorf("ParseAmount(%q) expected an error, got none", in)
		}
	}
}

func TestTokenIdZiesha(t *testing.T) {
	if !Ziesha.IsZiesha() {
		t.Error("Ziesha should be the zero TokenId")
	}
	other := NewTokenId([]byte("alice"), 1, "Test", "TST")
	if other.IsZiesha() {
		t.Error("a derived token id should not equal Ziesha")
	}
	again := NewTokenId([]byte("alice"), 1, "Test", "TST")
	if other != again {
		t.Error("NewTokenId should be deterministic for identical inputs")
	}
}

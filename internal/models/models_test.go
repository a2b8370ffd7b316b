package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input    string
		expected Money
		wantErr  bool
	}{
		{"500", "500.00", false},
		{"500.5", "500.50", false},
		{"500.00", "500.00", false},
		{"0.99", "0.99", false},
		{"007.10", "7.10", false},
		{" 12.30 ", "12.30", false},
		{"", "", true},
		{"-5", "", true},
		{"1.999", "", true},
		{"abc", "", true},
		{"123456789", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMoney) {
					t.Errorf("ParseMoney(%q) error = %v, expected ErrInvalidMoney", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMoney(%q) error = %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseMoney(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMoney_MinorUnits(t *testing.T) {
	tests := []struct {
		money    Money
		expected int64
	}{
		{"500.00", 50000},
		{"0.01", 1},
		{"19.9", 1990},
		{"", 0},
		{"-3.25", -325},
	}

	for _, tt := range tests {
		got, err := tt.money.MinorUnits()
		if err != nil {
			t.Fatalf("MinorUnits(%q) error = %v", tt.money, err)
		}
		if got != tt.expected {
			t.Errorf("MinorUnits(%q) = %d, expected %d", tt.money, got, tt.expected)
		}
	}
}

func TestMoneyFromMinor(t *testing.T) {
	if got := MoneyFromMinor(50000); got != "500.00" {
		t.Errorf("MoneyFromMinor(50000) = %q, expected %q", got, "500.00")
	}
	if got := MoneyFromMinor(7); got != "0.07" {
		t.Errorf("MoneyFromMinor(7) = %q, expected %q", got, "0.07")
	}
}

func TestMoney_Percent(t *testing.T) {
	tests := []struct {
		money    Money
		pct      float64
		expected Money
	}{
		{"500.00", 10, "50.00"},
		{"99.99", 10, "10.00"},
		{"100.00", 12.5, "12.50"},
		{"0.05", 10, "0.01"},
		{"100.00", 0, "0.00"},
	}

	for _, tt := range tests {
		got, err := tt.money.Percent(tt.pct)
		if err != nil {
			t.Fatalf("Percent error = %v", err)
		}
		if got != tt.expected {
			t.Errorf("%q.Percent(%v) = %q, expected %q", tt.money, tt.pct, got, tt.expected)
		}
	}
}

func TestMoney_Scan(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected Money
	}{
		{"text", "500.00", "500.00"},
		{"bytes", []byte("12.5"), "12.50"},
		{"integer", int64(500), "500.00"},
		{"float", 12.34, "12.34"},
		{"null", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			if err := m.Scan(tt.value); err != nil {
				t.Fatalf("Scan error = %v", err)
			}
			if m != tt.expected {
				t.Errorf("Scan(%v) = %q, expected %q", tt.value, m, tt.expected)
			}
		})
	}
}

func TestProjectStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to ProjectStatus
		allowed  bool
	}{
		{ProjectPending, ProjectActive, true},
		{ProjectActive, ProjectInReview, true},
		{ProjectInReview, ProjectCompleted, true},
		{ProjectInReview, ProjectActive, true},
		{ProjectPending, ProjectCancelled, true},
		{ProjectActive, ProjectCancelled, true},
		{ProjectInReview, ProjectCancelled, true},
		{ProjectCompleted, ProjectActive, false},
		{ProjectCompleted, ProjectPending, false},
		{ProjectCompleted, ProjectCancelled, false},
		{ProjectCancelled, ProjectActive, false},
		{ProjectPending, ProjectCompleted, false},
		{ProjectActive, ProjectPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s allowed = %v, expected %v", tt.from, tt.to, got, tt.allowed)
		}
	}

	if !ProjectCompleted.Terminal() || !ProjectCancelled.Terminal() {
		t.Error("completed and cancelled should be terminal")
	}
	if ProjectActive.Terminal() {
		t.Error("active should not be terminal")
	}
}

func TestPaymentStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		allowed  bool
	}{
		{PaymentPending, PaymentHeld, true},
		{PaymentHeld, PaymentReleased, true},
		{PaymentHeld, PaymentRefunded, true},
		{PaymentPending, PaymentRefunded, true},
		{PaymentPending, PaymentReleased, false},
		{PaymentReleased, PaymentHeld, false},
		{PaymentReleased, PaymentRefunded, false},
		{PaymentRefunded, PaymentHeld, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s allowed = %v, expected %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestLocalizedText(t *testing.T) {
	text := Text(map[Language]string{LangEN: "Leadership", LangAR: "القيادة"})

	if text.Get(LangAR) != "القيادة" {
		t.Errorf("Get(ar) = %q", text.Get(LangAR))
	}

	enOnly := LocalizedText{En: "Coaching"}
	if enOnly.Get(LangAR) != "Coaching" {
		t.Errorf("Get(ar) should fall back to English, got %q", enOnly.Get(LangAR))
	}
	if enOnly.Has(LangAR) {
		t.Error("Has(ar) should be false")
	}

	lang, src, ok := LocalizedText{Ar: "تدريب"}.Source()
	if !ok || lang != LangAR || src != "تدريب" {
		t.Errorf("Source() = %q, %q, %v", lang, src, ok)
	}

	merged := LocalizedText{En: "old", Ar: "قديم"}
	merged.Merge(LocalizedText{En: "new"})
	if merged.En != "new" || merged.Ar != "قديم" {
		t.Errorf("Merge() = %+v", merged)
	}
}

func TestCanonicalPair(t *testing.T) {
	a1, b1, k1 := CanonicalPair("user-b", "user-a")
	a2, b2, k2 := CanonicalPair("user-a", "user-b")

	if k1 != k2 {
		t.Errorf("pair keys differ: %q vs %q", k1, k2)
	}
	if a1 != "user-a" || b1 != "user-b" || a2 != a1 || b2 != b1 {
		t.Errorf("participants not canonical: (%s,%s) (%s,%s)", a1, b1, a2, b2)
	}
}

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		input, expected string
	}{
		{"marketplace.db", "marketplace.db?_fk=1"},
		{"file:test?mode=memory", "file:test?mode=memory&_fk=1"},
		{"file:x?_fk=0", "file:x?_fk=0"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.input); got != tt.expected {
			t.Errorf("sqliteDSN(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestLocalizedText_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input    string
		expected LocalizedText
	}{
		{`"Leadership Training"`, LocalizedText{En: "Leadership Training"}},
		{`{"en":"Coaching","ar":"تدريب"}`, LocalizedText{En: "Coaching", Ar: "تدريب"}},
		{`{"ar":"تدريب"}`, LocalizedText{Ar: "تدريب"}},
		{`null`, LocalizedText{}},
	}

	for _, tt := range tests {
		var got LocalizedText
		if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("Unmarshal(%s) = %+v, expected %+v", tt.input, got, tt.expected)
		}
	}

	var bad LocalizedText
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Error("expected error for a number")
	}
}

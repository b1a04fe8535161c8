package core

import (
	"reflect"
	"testing"
)

func TestMapRowArabicHeaders(t *testing.T) {
	row := map[string]any{
		"الاسم":  "محمد",
		"الهاتف": "06-12 34 56 78",
	}

	bag := MapRow(row)
	want := RawFieldBag{KeyFullName: "محمد", KeyPhone: "06-12 34 56 78"}
	if !reflect.DeepEqual(bag, want) {
		t.Fatalf("MapRow = %#v, want %#v", bag, want)
	}

	rec := Normalize(bag)
	if rec.FullName.Value() != "محمد" || rec.Phone.Value() != "0612345678" {
		t.Errorf("normalized = %q / %q", rec.FullName.Value(), rec.Phone.Value())
	}
	rec = ImportRecord(bag)
	if rec.FullName.Value() != "محمد" || rec.Phone.Value() != "0612345678" {
		t.Errorf("import record = %q / %q", rec.FullName.Value(), rec.Phone.Value())
	}
}

func TestMapRowHeaderForms(t *testing.T) {
	tests := []struct {
		name   string
		header string
		key    string
	}{
		{"camel case", "fullName", KeyFullName},
		{"upper with spaces", "  FULL NAME ", KeyFullName},
		{"punctuation", "Membership-ID", KeyMembershipID},
		{"underscore", "member_type", KeyMemberType},
		{"plain id", "ID", KeyMembershipID},
		{"arabic date", "تاريخ الانضمام", KeyJoinedAt},
		{"english date", "Join Date", KeyJoinedAt},
		{"membership date", "Membership Date", KeyMembershipDate},
		{"cin", "الرقم الوطني", KeyCIN},
		{"financial", "الالتزام المالي", KeyFinancialCommitment},
		{"email arabic", "البريد الإلكتروني", KeyEmail},
		{"role parenthesized", "المهمة (نص)", KeyRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := MapRow(map[string]any{tt.header: "x"})
			if bag[tt.key] != "x" {
				t.Errorf("MapRow(%q) = %#v, want key %s", tt.header, bag, tt.key)
			}
		})
	}
}

func TestMapRowAliasPriority(t *testing.T) {
	row := map[string]any{
		"name":     "second",
		"fullname": "first",
		"الاسم":    "third",
	}
	if got := MapRow(row)[KeyFullName]; got != "first" {
		t.Errorf("fullName = %#v, want first alias to win", got)
	}
}

func TestMapRowOmitsMissingValues(t *testing.T) {
	row := map[string]any{
		"fullname": nil,
		"name":     "Fallback",
		"phone":    "   ",
		"email":    nil,
		"unknown":  "ignored",
	}
	bag := MapRow(row)
	want := RawFieldBag{KeyFullName: "Fallback"}
	if !reflect.DeepEqual(bag, want) {
		t.Errorf("MapRow = %#v, want %#v", bag, want)
	}
}

func TestMapRowKeepsNumbers(t *testing.T) {
	bag := MapRow(map[string]any{"membershipId": float64(100), "joinedAt": float64(44927)})
	if bag[KeyMembershipID] != float64(100) || bag[KeyJoinedAt] != float64(44927) {
		t.Errorf("MapRow = %#v", bag)
	}
}

func TestTemplateHeaders(t *testing.T) {
	headers := TemplateHeaders()
	seen := map[string]bool{}
	for _, h := range headers {
		if h == KeyJoinedAt {
			t.Error("template must not expose the storage key joinedAt")
		}
		seen[h] = true
	}
	for _, k := range []string{KeyFullName, KeyMembershipID, KeyMembershipDate, KeyCIN} {
		if !seen[k] {
			t.Errorf("template missing %s", k)
		}
	}
	for _, h := range headers {
		if got := MapRow(map[string]any{h: "v"}); got[h] != "v" {
			t.Errorf("template header %q does not map back to itself: %#v", h, got)
		}
	}
}

func TestLocalizedHeader(t *testing.T) {
	if got := LocalizedHeader(KeyFullName); got != "الاسم" {
		t.Errorf("LocalizedHeader(fullName) = %q", got)
	}
	if got := LocalizedHeader(KeyMembershipDate); got != "" {
		t.Errorf("LocalizedHeader(membershipDate) = %q, want empty", got)
	}
}

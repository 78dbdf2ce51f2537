package evidence

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEntities(t *testing.T) {
	cases := []struct {
		name string
		kind EntityKind
		text string
		want []string
	}{
		{
			name: "amounts",
			kind: Amounts,
			text: "Deposits of $9,500, $9,500 and $12,000.50 were followed by a $2M wire and $3 million in notes.",
			want: []string{"$9,500", "$12,000.50", "$2M", "$3 million"},
		},
		{
			name: "companies",
			kind: Companies,
			text: "The Greenleaf Holdings group owns Blue River LLC and Smith & Sons Co. through Harbor Capital.",
			want: []string{"Greenleaf Holdings", "Blue River LLC", "Smith & Sons Co.", "Harbor Capital"},
		},
		{
			name: "locations",
			kind: Locations,
			text: "Funds moved from Panama to an OFFSHORE account before reaching Oregon. Iranian ties were denied.",
			want: []string{"Panama", "offshore", "Oregon"},
		},
		{
			name: "people",
			kind: People,
			text: "Maria Lopez met John Smith in the Cayman Islands on behalf of Acme Holdings.",
			want: []string{"Maria Lopez", "John Smith"},
		},
		{
			name: "none",
			kind: Amounts,
			text: "No figures were disclosed.",
		},
		{
			name: "unknown kind",
			kind: EntityKind("vessels"),
			text: "The Ever Given ran aground.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Entities(tc.kind, tc.text)); diff != "" {
				t.Errorf("Entities(%q) mismatch:\n%s", tc.kind, diff)
			}
		})
	}
}

func TestParseEntityKind(t *testing.T) {
	cases := []struct {
		in   string
		want EntityKind
	}{
		{"amounts", Amounts},
		{"Countries", Locations},
		{" persons ", People},
		{"company", Companies},
	}
	for _, tc := range cases {
		got, err := ParseEntityKind(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseEntityKind(%q) = %q, %v, want %q", tc.in, got, err, tc.want)
		}
	}
	if _, err := ParseEntityKind("vessels"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestAmountValue(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"$9,500", 9500},
		{"$12,000.50", 12000.50},
		{"$2M", 2e6},
		{"$3 million", 3e6},
		{"$40K", 40000},
	}
	for _, tc := range cases {
		got, err := AmountValue(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("AmountValue(%q) = %v, %v, want %v", tc.in, got, err, tc.want)
		}
	}
	if _, err := AmountValue("$abc"); err == nil {
		t.Error("expected an error for a malformed amount")
	}
}

func TestTransactionSignals(t *testing.T) {
	cases := []struct {
		name          string
		text          string
		want          Signals
		cashIntensive bool
	}{
		{
			name: "structuring",
			text: "The customer made deposits of $9,800 and $9,900 on consecutive days.",
			want: Signals{Structuring: true, Amounts: []string{"$9,800", "$9,900"}},
		},
		{
			name: "ninety thousand is not structuring",
			text: "A transfer of $90,000 was recorded.",
			want: Signals{Amounts: []string{"$90,000"}},
		},
		{
			name: "large cash",
			text: "Cash deposit of $250,000 at the branch.",
			want: Signals{LargeCash: true, CashMentions: 1, Amounts: []string{"$250,000"}},
		},
		{
			name: "rapid movement and ownership",
			text: "Funds were moved the same day through a shell company in a layering scheme.",
			want: Signals{RapidMovement: true, ComplexOwnership: true},
		},
		{
			name:          "cash intensive",
			text:          "cash sales, cash tips, cash payroll, cash rent, cash vendors, cash everything",
			want:          Signals{CashMentions: 6},
			cashIntensive: true,
		},
		{
			name: "clean",
			text: "Quarterly invoices are settled by bank transfer.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TransactionSignals(tc.text)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("TransactionSignals mismatch:\n%s", diff)
			}
			if got.CashIntensive() != tc.cashIntensive {
				t.Errorf("CashIntensive() = %t, want %t", got.CashIntensive(), tc.cashIntensive)
			}
		})
	}
}

func TestSignals_Flags(t *testing.T) {
	s := Signals{Structuring: true, ComplexOwnership: true, CashMentions: 7}
	want := []string{
		"possible structuring just under $10,000",
		"complex ownership or intermediary structures",
		"cash-intensive business (7 mentions of cash)",
	}
	if diff := cmp.Diff(want, s.Flags()); diff != "" {
		t.Errorf("Flags mismatch:\n%s", diff)
	}
	if got := (Signals{}).Flags(); got != nil {
		t.Errorf("Flags() on clean signals = %v, want nil", got)
	}
}

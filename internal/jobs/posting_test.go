package jobs

import "testing"

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{input: "open", want: StatusOpen},
		{input: " Closed ", want: StatusClosed},
		{input: "FILLED", want: StatusFilled},
		{input: "archived", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPostingSalary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		posting Posting
		expect  string
	}{
		{name: "range", posting: Posting{SalaryFrom: 100, SalaryTo: 200, Currency: "EUR"}, expect: "100-200 EUR"},
		{name: "from only", posting: Posting{SalaryFrom: 100, Currency: "EUR"}, expect: "from 100 EUR"},
		{name: "to only", posting: Posting{SalaryTo: 200}, expect: "up to 200"},
		{name: "none", posting: Posting{}, expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.posting.Salary(); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestPostingLabelAndIDs(t *testing.T) {
	p := Posting{ID: "a", Title: "Go Developer", Company: "Acme", Location: "Berlin", Remote: true}
	if got := p.Label(); got != "Go Developer / Acme / Berlin / remote" {
		t.Fatalf("unexpected label: %q", got)
	}

	ids := IDs([]Posting{{ID: "b"}, {ID: "a"}, {ID: "c"}})
	if len(ids) != 3 || ids[0] != "b" || ids[1] != "a" || ids[2] != "c" {
		t.Fatalf("unexpected ids order: %v", ids)
	}

	var nilPosting *Posting
	if nilPosting.IsOpen() {
		t.Fatalf("nil posting must not be open")
	}
}

package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"pennywise/internal/patch"
)

type createRequest struct {
	Type     string           `validate:"required,category_type"`
	Currency string           `validate:"omitempty,iso4217"`
	Month    string           `validate:"omitempty,month"`
	Amount   *decimal.Decimal `validate:"required,money"`
}

type updateRequest struct {
	Name      patch.Field[string]          `validate:"omitempty,min=1,max=100"`
	SortOrder patch.Field[int]             `validate:"omitempty,min=0"`
	GroupID   patch.Field[*string]         `validate:"omitempty,uuid"`
	Planned   patch.Field[decimal.Decimal] `validate:"omitempty,money"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateValidation(t *testing.T) {
	v := newValidate()

	tests := []struct {
		name    string
		req     createRequest
		wantErr bool
	}{
		{"valid", createRequest{Type: "transfer", Currency: "USD", Month: "2024-03", Amount: amount("12.50")}, false},
		{"bad_type", createRequest{Type: "savings", Amount: amount("1")}, true},
		{"bad_currency", createRequest{Type: "expense", Currency: "XXX", Amount: amount("1")}, true},
		{"bad_month", createRequest{Type: "expense", Month: "2024-13", Amount: amount("1")}, true},
		{"short_month", createRequest{Type: "expense", Month: "2024-3", Amount: amount("1")}, true},
		{"missing_amount", createRequest{Type: "expense"}, true},
		{"too_many_decimals", createRequest{Type: "expense", Amount: amount("1.005")}, true},
		{"trailing_zero_decimals", createRequest{Type: "expense", Amount: amount("1.500")}, false},
		{"too_large", createRequest{Type: "expense", Amount: amount("100000000")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPatchFieldValidation(t *testing.T) {
	v := newValidate()
	id := "0190d6a0-8f4c-7cc4-9a55-6f1b1c9f4e21"
	bad := "nope"

	tests := []struct {
		name    string
		req     updateRequest
		wantErr bool
	}{
		{"empty_payload", updateRequest{}, false},
		{"valid_fields", updateRequest{Name: patch.Some("Rent"), SortOrder: patch.Some(2), GroupID: patch.Some(&id)}, false},
		{"null_group", updateRequest{GroupID: patch.Null[*string]()}, false},
		{"empty_name", updateRequest{Name: patch.Some("")}, false},
		{"long_name", updateRequest{Name: patch.Some(string(make([]byte, 101)))}, true},
		{"negative_sort", updateRequest{SortOrder: patch.Some(-1)}, true},
		{"bad_group_id", updateRequest{GroupID: patch.Some(&bad)}, true},
		{"bad_planned", updateRequest{Planned: patch.Some(decimal.RequireFromString("3.333"))}, true},
		{"good_planned", updateRequest{Planned: patch.Some(decimal.RequireFromString("300"))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

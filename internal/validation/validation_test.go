package validation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"grocery_bot/internal/model"
)

func intPtr(n int) *int { return &n }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *ItemInput)
		wantErr string
	}{
		{name: "defaults", mutate: func(in *ItemInput) {}},
		{name: "full", mutate: func(in *ItemInput) {
			in.Category = "frozen"
			in.Priority = "high"
			in.PurchaseDate = "2026-05-18T08:00:00Z"
			in.ShelfLifeDays = intPtr(0)
			in.EstimatedPrice = 12.5
		}},
		{name: "empty name", mutate: func(in *ItemInput) { in.Name = "" }, wantErr: "name is required"},
		{name: "long name", mutate: func(in *ItemInput) { in.Name = strings.Repeat("x", 256) }, wantErr: "name must be at most 255"},
		{name: "zero quantity", mutate: func(in *ItemInput) { in.Quantity = 0 }, wantErr: "quantity must be at least 1"},
		{name: "huge quantity", mutate: func(in *ItemInput) { in.Quantity = 10000 }, wantErr: "quantity must be at most 9999"},
		{name: "bad category", mutate: func(in *ItemInput) { in.Category = "toys" }, wantErr: "category must be one of: fruits, vegetables"},
		{name: "bad priority", mutate: func(in *ItemInput) { in.Priority = "urgent" }, wantErr: "priority must be one of: low, medium, high"},
		{name: "negative shelf life", mutate: func(in *ItemInput) { in.ShelfLifeDays = intPtr(-1) }, wantErr: "shelflifedays must be at least 0"},
		{name: "negative price", mutate: func(in *ItemInput) { in.EstimatedPrice = -0.5 }, wantErr: "estimatedprice must be at least 0"},
		{name: "long notes", mutate: func(in *ItemInput) { in.Notes = strings.Repeat("n", 501) }, wantErr: "notes must be at most 500"},
		{name: "bad date", mutate: func(in *ItemInput) { in.PurchaseDate = "05/18/2026" }, wantErr: "invalid purchase date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewItemInput("Milk")
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestItem(t *testing.T) {
	in := ItemInput{Name: "Eggs", Quantity: 12, Category: "dairy", Priority: "low", ShelfLifeDays: intPtr(21), Notes: "free range"}
	want := model.Item{Name: "Eggs", Quantity: 12, Category: "dairy", Priority: model.PriorityLow, ShelfLifeDays: intPtr(21), Notes: "free range"}
	if diff := cmp.Diff(want, in.Item()); diff != "" {
		t.Errorf("Item() mismatch (-want +got):\n%s", diff)
	}
}

func TestCategoriesMatchRule(t *testing.T) {
	for _, c := range Categories {
		in := NewItemInput("x")
		in.Category = c
		if err := in.Validate(); err != nil {
			t.Errorf("category %q rejected: %v", c, err)
		}
	}
}

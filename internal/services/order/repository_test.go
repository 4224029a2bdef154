package order

import (
	"reflect"
	"testing"

	"malume-nico/internal/models"
)

func TestMergeSelections(t *testing.T) {
	tests := []struct {
		name  string
		input []models.ItemSelection
		want  []models.ItemSelection
	}{
		{
			name:  "empty",
			input: nil,
			want:  []models.ItemSelection{},
		},
		{
			name: "no duplicates",
			input: []models.ItemSelection{
				{MenuItemID: 1, Quantity: 2},
				{MenuItemID: 2, Quantity: 1},
			},
			want: []models.ItemSelection{
				{MenuItemID: 1, Quantity: 2},
				{MenuItemID: 2, Quantity: 1},
			},
		},
		{
			name: "duplicate ids sum quantities",
			input: []models.ItemSelection{
				{MenuItemID: 1, Quantity: 2},
				{MenuItemID: 2, Quantity: 1},
				{MenuItemID: 1, Quantity: 3},
			},
			want: []models.ItemSelection{
				{MenuItemID: 1, Quantity: 5},
				{MenuItemID: 2, Quantity: 1},
			},
		},
		{
			name: "first occurrence keeps its position",
			input: []models.ItemSelection{
				{MenuItemID: 9, Quantity: 1},
				{MenuItemID: 3, Quantity: 1},
				{MenuItemID: 9, Quantity: 1},
				{MenuItemID: 3, Quantity: 2},
			},
			want: []models.ItemSelection{
				{MenuItemID: 9, Quantity: 2},
				{MenuItemID: 3, Quantity: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeSelections(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("mergeSelections(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

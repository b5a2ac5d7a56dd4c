package models

import "testing"

func TestComputePurchasePoints(t *testing.T) {
	tests := []struct {
		name    string
		setting *PointsSetting
		total   float64
		want    int
	}{
		{name: "below minimum", setting: &PointsSetting{MinimumOrderTotal: 1000, AmountPerPoint: 100}, total: 999, want: 0},
		{name: "at minimum", setting: &PointsSetting{MinimumOrderTotal: 1000, AmountPerPoint: 100}, total: 1000, want: 10},
		{name: "rounds down", setting: &PointsSetting{MinimumOrderTotal: 0, AmountPerPoint: 100}, total: 5099, want: 50},
		{name: "zero rate", setting: &PointsSetting{MinimumOrderTotal: 0, AmountPerPoint: 0}, total: 5000, want: 0},
		{name: "nil setting", setting: nil, total: 5000, want: 0},
	}

	for _, tt := range tests {
		if got := tt.setting.ComputePurchasePoints(tt.total); got != tt.want {
			t.Fatalf("%s: ComputePurchasePoints(%v) = %d, want %d", tt.name, tt.total, got, tt.want)
		}
	}
}

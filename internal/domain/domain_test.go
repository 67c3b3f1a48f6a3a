package domain

import "testing"

func TestFireHour(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		hour int
		tz   int
		want int
	}{
		{name: "no offset", hour: 8, tz: 0, want: 8},
		{name: "positive offset", hour: 9, tz: 3, want: 12},
		{name: "wrap forward", hour: 22, tz: 5, want: 3},
		{name: "negative offset", hour: 8, tz: -3, want: 5},
		{name: "wrap backward", hour: 1, tz: -5, want: 20},
		{name: "max offset", hour: 23, tz: 14, want: 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FireHour(tt.hour, tt.tz); got != tt.want {
				t.Fatalf("FireHour(%d, %d) = %d, want %d", tt.hour, tt.tz, got, tt.want)
			}
		})
	}
}

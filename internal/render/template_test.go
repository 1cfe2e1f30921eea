package render

import (
	"encoding/json"
	"testing"
)

func TestRender(t *testing.T) {
	tcs := []struct {
		name     string
		template string
		params   []float64
		want     string
	}{
		{
			name:     "integer and percent",
			template: "Deals #1[i] damage and #2% chance to stun.",
			params:   []float64{150.4, 0.35},
			want:     "Deals 150 damage and 35% chance to stun.",
		},
		{
			name:     "out of range index passes through",
			template: "#9 unused",
			params:   []float64{1, 2},
			want:     "#9 unused",
		},
		{
			name:     "fixed point keeps trailing zeros",
			template: "#1[f2] turns",
			params:   []float64{3},
			want:     "3.00 turns",
		},
		{
			name:     "natural integral prints without point",
			template: "Restores #1 energy.",
			params:   []float64{30},
			want:     "Restores 30 energy.",
		},
		{
			name:     "natural fractional trims trailing zeros",
			template: "#1x multiplier",
			params:   []float64{1.25},
			want:     "1.25x multiplier",
		},
		{
			name:     "percent formats the scaled value",
			template: "#1[f1]% of ATK",
			params:   []float64{0.505},
			want:     "50.5% of ATK",
		},
		{
			name:     "uppercase specifier still rounds",
			template: "Deals #1[I]% damage.",
			params:   []float64{0.5},
			want:     "Deals 50% damage.",
		},
		{
			name:     "fixed point without digits means zero decimals",
			template: "#1[f] hits",
			params:   []float64{2.7},
			want:     "3 hits",
		},
		{
			name:     "no placeholders",
			template: "plain text",
			params:   nil,
			want:     "plain text",
		},
		{
			name:     "zero index passes through",
			template: "#0 stays",
			params:   []float64{5},
			want:     "#0 stays",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if got := Render(tc.template, tc.params); got != tc.want {
				t.Errorf("Render(%q) = %q, want %q", tc.template, got, tc.want)
			}
		})
	}
}

func TestParamsSkipsNonNumeric(t *testing.T) {
	raw := []any{
		json.Number("1.5"),
		"2",
		map[string]any{"Value": json.Number("0.35")},
		"not a number",
		nil,
	}
	got := Params(raw)
	want := []float64{1.5, 2, 0.35}
	if len(got) != len(want) {
		t.Fatalf("Params = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Params[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParamsFromJSON(t *testing.T) {
	got := ParamsFromJSON(`[{"Value": 0.5}, 2, "3.5"]`)
	want := []float64{0.5, 2, 3.5}
	if len(got) != len(want) {
		t.Fatalf("ParamsFromJSON = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ParamsFromJSON[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if ParamsFromJSON("") != nil {
		t.Fatal("empty input should yield nil")
	}
	if ParamsFromJSON("{bad") != nil {
		t.Fatal("malformed input should yield nil")
	}
}

package palette

import "testing"

func TestParseOverride(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		want  RGB
		ok    bool
	}{
		{name: "triple", input: "255,0,0", want: RGB{R: 255}, ok: true},
		{name: "triple with spaces", input: " 12 , 34 ,56 ", want: RGB{R: 12, G: 34, B: 56}, ok: true},
		{name: "triple clamps", input: "300,0,999", want: RGB{R: 255, B: 255}, ok: true},
		{name: "hex lower", input: "#10b981", want: RGB{R: 16, G: 185, B: 129}, ok: true},
		{name: "hex upper", input: "#F59E0B", want: RGB{R: 245, G: 158, B: 11}, ok: true},
		{name: "short hex", input: "#fff", ok: false},
		{name: "bare hex", input: "10b981", ok: false},
		{name: "named colour", input: "red", ok: false},
		{name: "two channels", input: "1,2", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "int slice", input: []int{1, 2, 3}, want: RGB{R: 1, G: 2, B: 3}, ok: true},
		{name: "json array", input: []any{10.0, 20.0, 30.0}, want: RGB{R: 10, G: 20, B: 30}, ok: true},
		{name: "json array with string", input: []any{10.0, "20", 30.0}, ok: false},
		{name: "short slice", input: []float64{1, 2}, ok: false},
		{name: "nil", input: nil, ok: false},
		{name: "number", input: 42, ok: false},
	}

	for _, tt := range tests {
		got, ok := ParseOverride(tt.input)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%t, got %t", tt.name, tt.ok, ok)
		}
		if ok && got != tt.want {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOverridesApplyReplacesSlotVerbatim(t *testing.T) {
	t.Parallel()

	extracted := Palette{
		Corners: &Corners{
			TL: RGB{R: 10, G: 10, B: 10},
			TR: RGB{R: 20, G: 20, B: 20},
			BR: RGB{R: 30, G: 30, B: 30},
			BL: RGB{R: 40, G: 40, B: 40},
		},
		Dominants: &[2]RGB{{R: 1}, {G: 1}},
	}

	overrides := Overrides{AccentTL: ParseOverridePointer("255,0,0")}
	applied := overrides.Apply(extracted)

	if applied.Corners.TL != (RGB{R: 255}) {
		t.Fatalf("expected exact override, got %v", applied.Corners.TL)
	}
	if applied.Corners.TR != extracted.Corners.TR || applied.Corners.BL != extracted.Corners.BL {
		t.Fatalf("expected untouched slots to keep extracted values, got %+v", *applied.Corners)
	}
	if *applied.Dominants != *extracted.Dominants {
		t.Fatalf("expected dominants untouched, got %v", *applied.Dominants)
	}
	if extracted.Corners.TL != (RGB{R: 10, G: 10, B: 10}) {
		t.Fatal("apply must not mutate its input")
	}
}

func TestOverridesApplyFillsMissingFields(t *testing.T) {
	t.Parallel()

	overrides := Overrides{
		Dominant2: ParseOverridePointer("#2563eb"),
		AccentBR:  ParseOverridePointer([]int{1, 2, 3}),
		AccentTR:  ParseOverridePointer("not a colour"),
	}
	applied := overrides.Apply(Palette{})

	if applied.Dominants == nil || applied.Dominants[0] != applied.Dominants[1] {
		t.Fatalf("expected mirrored dominants, got %v", applied.Dominants)
	}
	if applied.Dominants[1] != (RGB{R: 37, G: 99, B: 235}) {
		t.Fatalf("unexpected dominant override %v", applied.Dominants[1])
	}
	if applied.Corners == nil || applied.Corners.TL != (RGB{R: 1, G: 2, B: 3}) || applied.Corners.TR != (RGB{R: 1, G: 2, B: 3}) {
		t.Fatalf("expected corners mirrored from the only valid override, got %+v", applied.Corners)
	}
}

func TestOverridesApplyWithoutOverridesKeepsNulls(t *testing.T) {
	t.Parallel()

	applied := Overrides{}.Apply(Palette{})
	if !applied.Empty() {
		t.Fatalf("expected empty palette, got %+v", applied)
	}
}

package utils

import "testing"

func TestAsIntClamps(t *testing.T) {
	cases := []struct {
		raw           string
		def, min, max int
		want          int
	}{
		{"", 10, 1, 100, 10},
		{"abc", 10, 1, 100, 10},
		{"  42 ", 10, 1, 100, 42},
		{"0", 10, 1, 100, 1},
		{"-5", 10, 1, 100, 1},
		{"9999", 10, 1, 100, 100},
	}
	for _, c := range cases {
		if got := AsInt(c.raw, c.def, c.min, c.max); got != c.want {
			t.Errorf("AsInt(%q) = %d, want %d", c.raw, got, c.want)
		}
	}
}

func TestPagingOffset(t *testing.T) {
	p := Paging("3", "25", 20, 100)
	if p.Page != 3 || p.Size != 25 || p.Offset != 50 {
		t.Fatalf("page = %+v", p)
	}

	p = Paging("", "", 20, 100)
	if p.Page != 1 || p.Size != 20 || p.Offset != 0 {
		t.Fatalf("defaults = %+v", p)
	}

	p = Paging("0", "500", 20, 100)
	if p.Page != 1 || p.Size != 100 {
		t.Fatalf("clamped = %+v", p)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct{ total, size, want int }{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := TotalPages(c.total, c.size); got != c.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", c.total, c.size, got, c.want)
		}
	}
}

func TestNormFTS(t *testing.T) {
	if got := NormFTS("  开拓者   hello\tworld  "); got != "开拓者 hello world" {
		t.Fatalf("NormFTS = %q", got)
	}
	if got := NormFTS("   "); got != "" {
		t.Fatalf("NormFTS(blank) = %q", got)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := EscapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("EscapeLike = %q", got)
	}
}

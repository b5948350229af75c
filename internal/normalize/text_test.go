package normalize

import "testing"

func TestForComparison(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Abbey Road", "abbey road"},
		{"  The   Beatles ", "the beatles"},
		{"Łódź", "lodz"},
		{"Sigur Rós", "sigur ros"},
		{"AC/DC", "ac dc"},
		{"Mötley Crüe", "motley crue"},
		{"Nevermind (Remastered)", "nevermind remastered"},
		{"Beyoncé", "beyonce"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := ForComparison(tt.in); got != tt.want {
			t.Errorf("ForComparison(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestForComparisonIdempotent(t *testing.T) {
	inputs := []string{"Łódź", "Sigur Rós", "The Beatles", "AC/DC", "Café Tacvba"}
	for _, in := range inputs {
		once := ForComparison(in)
		twice := ForComparison(once)
		if once != twice {
			t.Errorf("ForComparison not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Björk", "Bjork"},
		{"Łódź", "Lodz"},
		{"Motörhead", "Motorhead"},
		{"São Paulo", "Sao Paulo"},
		{"plain ascii", "plain ascii"},
	}
	for _, tt := range tests {
		if got := RemoveDiacritics(tt.in); got != tt.want {
			t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRepairMojibake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BeyoncÃ©", "Beyoncé"},
		{"CÃ©line Dion", "Céline Dion"},
		{"Å‚Ã³dÅº", "łódź"},
		{"no artifacts here", "no artifacts here"},
	}
	for _, tt := range tests {
		if got := RepairMojibake(tt.in); got != tt.want {
			t.Errorf("RepairMojibake(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRepairMojibakeIdempotentOnRepaired(t *testing.T) {
	in := "BeyoncÃ©"
	once := RepairMojibake(in)
	if RepairMojibake(once) != once {
		t.Errorf("RepairMojibake not stable on already-repaired text %q", once)
	}
}

func TestStripFeaturing(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Airplanes (feat. Hayley Williams)", "Airplanes"},
		{"Empire State of Mind ft. Alicia Keys", "Empire State of Mind"},
		{"Umbrella featuring Jay-Z", "Umbrella"},
		{"No Features Here", "No Features Here"},
	}
	for _, tt := range tests {
		if got := StripFeaturing(tt.in); got != tt.want {
			t.Errorf("StripFeaturing(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

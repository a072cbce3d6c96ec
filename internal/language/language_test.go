package language

import (
	"testing"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// 2-letter codes pass through
		{"en", "en"},
		{"EN", "en"},
		// 3-letter codes convert
		{"eng", "en"},
		{"fre", "fr"},
		{"jpn", "ja"},
		{"chi", "zh"},
		{"kor", "ko"},
		// Word forms
		{"French", "fr"},
		{"japanese", "ja"},
		// Pseudo languages map to the transliterated language
		{"x-jat", "ja"},
		{"x-zht", "zh"},
		{"x-kot", "ko"},
		// Unknown 2-letter passes through
		{"xy", "xy"},
		// Unknown 3-letter returns empty
		{"xyz", ""},
		{"", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ToISO2(tt.input)
			if result != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestToISO3(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "eng"},
		{"ja", "jpn"},
		{"x-jat", "jpn"},
		{"eng", "eng"},
		{"xyz", "xyz"}, // unknown 3-letter passes through
		{"xy", "und"},  // unknown 2-letter becomes undefined
		{"", "und"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := ToISO3(tt.input); result != tt.expected {
				t.Errorf("ToISO3(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"X-JAT":   "x-jat",
		"x_zht":   "x-zht",
		"x-other": "x-other",
		"jpn":     "ja",
		" EN ":    "en",
		"english": "en",
		"xx":      "xx",
		"":        "",
	}
	for input, want := range tests {
		if got := Normalize(input); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBaseAndRomanized(t *testing.T) {
	if !IsRomanized("x-jat") || !IsRomanized("X-KOT") {
		t.Fatal("expected romanized pseudo languages to be detected")
	}
	if IsRomanized("ja") || IsRomanized("x-other") {
		t.Fatal("expected native and other codes not to be romanized")
	}
	if Base("x-jat") != "ja" || Base("x-zht") != "zh" || Base("x-kot") != "ko" {
		t.Fatal("unexpected base for pseudo language")
	}
	if Base("x-other") != "" {
		t.Fatalf("expected empty base for x-other, got %q", Base("x-other"))
	}
	if Base("ENG") != "en" {
		t.Fatalf("expected en, got %q", Base("ENG"))
	}
}

func TestOriginCountry(t *testing.T) {
	tests := map[string]string{
		"x-jat":   "Japan",
		"ja":      "Japan",
		"x-zht":   "China",
		"x-kot":   "South Korea",
		"en":      "",
		"x-other": "",
	}
	for input, want := range tests {
		if got := OriginCountry(input); got != want {
			t.Errorf("OriginCountry(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"en":      "English",
		"jpn":     "Japanese",
		"x-jat":   "Japanese (romanized)",
		"x-other": "Other",
		"x-unk":   "Unknown",
		"":        "Unknown",
		"xyz":     "XYZ",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

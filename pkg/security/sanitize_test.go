package security

import "testing"

func TestSanitizeInline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"plain", "Completa i tre passaggi", "Completa i tre passaggi"},
		{"keeps emphasis", "Solo <strong>tre</strong> passaggi", "Solo <strong>tre</strong> passaggi"},
		{"keeps span class", `<span class="accent">ciao</span>`, `<span class="accent">ciao</span>`},
		{"drops script", `ciao<script>alert(1)</script>`, "ciao"},
		{"drops handlers", `<em onclick="x()">hi</em>`, "<em>hi</em>"},
		{"drops links", `<a href="javascript:x()">go</a>`, "go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeInline(tt.in); got != tt.want {
				t.Errorf("SanitizeInline(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags("  Il tuo <b>profilo</b>\n\n  in breve "); got != "Il tuo profilo in breve" {
		t.Errorf("StripTags() = %q", got)
	}
	if got := StripTags("Nome & cognome"); got != "Nome & cognome" {
		t.Errorf("StripTags() should return unescaped text, got %q", got)
	}
}

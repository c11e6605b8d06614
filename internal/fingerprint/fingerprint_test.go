package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces", "Hola   Mundo", "hola mundo"},
		{"already normal", "hola mundo", "hola mundo"},
		{"trims", "  Solo   Linea  ", "solo linea"},
		{"tabs and newlines", "Yo\tte\nbusco", "yo te busco"},
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"keeps punctuation", "¡Mirá, Mirá!", "¡mirá, mirá!"},
		{"composes accents", "Cancio\u0301n", "canci\u00f3n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_CasingAndSpacingCollide(t *testing.T) {
	assert.Equal(t, Normalize("Hola   Mundo"), Normalize("hola mundo"))
	assert.Equal(t, Normalize("LA  NOCHE\tETERNA"), Normalize("la noche eterna"))
}

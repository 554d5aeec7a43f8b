package slug_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"alugserv/internal/slug"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Betoneira 400L":            "betoneira-400l",
		"  Compactação de Solo  ":   "compactacao-de-solo",
		"Andaime -- Tubular":        "andaime-tubular",
		"Gerador & Motor, Diesel":   "gerador-motor-diesel",
		"Martelete Rompedor 10kg!!": "martelete-rompedor-10kg",
		"Straße":                    "strasse",
		"already-a-slug":            "already-a-slug",
		"¿¡!?":                      slug.Fallback,
		"":                          slug.Fallback,
	}
	for in, want := range cases {
		assert.Equal(t, want, slug.Make(in), "input %q", in)
	}
}

func TestMakeIsIdempotent(t *testing.T) {
	for _, in := range []string{"Serra Mármore", "Bomba Submersível 1CV", "x"} {
		once := slug.Make(in)
		assert.Equal(t, once, slug.Make(once))
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "placa vibratoria agua", slug.Fold("Placa Vibratória ÁGUA"))
}

func TestCandidate(t *testing.T) {
	now := time.Unix(1700000000, 0)
	assert.Equal(t, "serra", slug.Candidate("serra", 0, now))
	assert.Equal(t, "serra-1700000000", slug.Candidate("serra", 1, now))
	assert.Equal(t, "serra-1700000000-3", slug.Candidate("serra", 3, now))
}

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "djokovic", Fold("Djoković"))
	assert.Equal(t, "novak djokovic", Fold("  Novak Djokovic "))
	assert.Equal(t, "munar", Fold("Muñar"))
	assert.Equal(t, "gauff", Fold("GAUFF"))
}

func TestSurname(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"surname first with initial", "Djokovic N.", "djokovic"},
		{"initial first", "N. Djokovic", "djokovic"},
		{"full name", "Novak Djokovic", "djokovic"},
		{"full name with diacritics", "Novak Djoković", "djokovic"},
		{"compound particle run", "Van De Zandschulp B.", "van de zandschulp"},
		{"particle mid-name", "Juan Martin del Potro", "del potro"},
		{"hyphenated initial", "Auger-Aliassime F.", "auger-aliassime"},
		{"single token", "Nadal", "nadal"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Surname(tt.in))
		})
	}
}

func TestSurnamesEqual(t *testing.T) {
	assert.True(t, SurnamesEqual("Djokovic N.", "Novak Djokovic"))
	assert.True(t, SurnamesEqual("Djoković", "djokovic"))
	assert.False(t, SurnamesEqual("Djokovic N.", "Alcaraz C."))
	assert.False(t, SurnamesEqual("", ""))
}

func TestFirstInitial(t *testing.T) {
	assert.Equal(t, "n", FirstInitial("Djokovic N."))
	assert.Equal(t, "n", FirstInitial("Novak Djokovic"))
	assert.Equal(t, "b", FirstInitial("Van De Zandschulp B."))
	assert.Equal(t, "", FirstInitial("Nadal"))
}

func TestKeys(t *testing.T) {
	keys := Keys("Novak Djokovic")
	assert.Equal(t, []string{"novak djokovic", "djokovic novak", "djokovic n", "djokovic"}, keys)

	// Single-token names collapse to one key.
	assert.Equal(t, []string{"nadal"}, Keys("Nadal"))
}

func TestKeys_NoDuplicates(t *testing.T) {
	keys := Keys("Djokovic Djokovic")
	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %q", k)
		seen[k] = true
	}
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Stands Modulados", "stands-modulados"},
		{"Iluminação & Acessórios", "iluminacao-acessorios"},
		{"  Balcões -- Promocionais  ", "balcoes-promocionais"},
		{"Pop-Up 3x3 (Curvo)", "pop-up-3x3-curvo"},
		{"___", ""},
		{"", ""},
		{"already-a-slug", "already-a-slug"},
		{"ÀÉÎÕÜ ç", "aeiou-c"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.in))
		})
	}
}

func TestSlugify_DeterministicAndIdempotent(t *testing.T) {
	inputs := []string{
		"Stands Modulados",
		"Totens & Displays",
		"Testeira Reta 3m",
		"-leading and trailing-",
		"Ñandú 100%",
	}
	for _, in := range inputs {
		first := Slugify(in)
		assert.Equal(t, first, Slugify(in), "slugify must be deterministic for %q", in)
		assert.Equal(t, first, Slugify(first), "slugify must be idempotent for %q", in)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "X1 - Frame reto", DisplayName("X1", "Frame reto"))
	assert.Equal(t, "Frame reto", DisplayName("", "Frame reto"))
}

func TestProductStatus_Valid(t *testing.T) {
	assert.True(t, ProductStatusActive.Valid())
	assert.True(t, ProductStatusDraft.Valid())
	assert.False(t, ProductStatus("archived").Valid())
}

package spandoc_test

import (
	"testing"

	"github.com/fwojciec/spandoc"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "collapses whitespace runs to a single space",
			raw:  "Nuclear  power\tprovides\n\nstable   electricity.",
			want: "Nuclear power provides stable electricity.",
		},
		{
			name: "trims leading and trailing whitespace",
			raw:  "  \n hello world \t ",
			want: "hello world",
		},
		{
			name: "preserves case and punctuation",
			raw:  "Hello, World! (Really?)",
			want: "Hello, World! (Really?)",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
		{
			name: "whitespace-only input",
			raw:  " \n\t ",
			want: "",
		},
		{
			name: "already canonical text is unchanged",
			raw:  "already canonical text",
			want: "already canonical text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, spandoc.Canonicalize(tt.raw))
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	t.Parallel()

	once := spandoc.Canonicalize("a  b\tc\nd")
	assert.Equal(t, once, spandoc.Canonicalize(once))
}

func TestFingerprintText(t *testing.T) {
	t.Parallel()

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		a := spandoc.FingerprintText(spandoc.Canonicalize("some  text"))
		b := spandoc.FingerprintText(spandoc.Canonicalize("some text"))
		assert.Equal(t, a, b)
	})

	t.Run("single character change produces a different fingerprint", func(t *testing.T) {
		t.Parallel()

		a := spandoc.FingerprintText("some text")
		b := spandoc.FingerprintText("some texts")
		assert.NotEqual(t, a, b)
	})

	t.Run("hex encoded 256 bits", func(t *testing.T) {
		t.Parallel()

		assert.Len(t, spandoc.FingerprintText("x"), 64)
	})
}

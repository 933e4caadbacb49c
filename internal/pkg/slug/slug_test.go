package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Reunião Anual 2024!":      "reuni-o-anual-2024",
		"Olá, Mundo!":              "ol-mundo",
		"  Hello   World  ":        "hello-world",
		"already-a-slug":           "already-a-slug",
		"--Edge--Case--":           "edge-case",
		"!!!":                      "",
		"":                         "",
		"Assembleia Geral 2025/26": "assembleia-geral-2025-26",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), in)
	}
}

func TestMake_Idempotent(t *testing.T) {
	for _, in := range []string{"Reunião Anual 2024!", "A  B  C", "-x-", "ÄÖÜ test", "123 Go"} {
		once := Make(in)
		assert.Equal(t, once, Make(once), in)
	}
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "annual-meeting-2", WithSuffix("annual-meeting", 2))
}

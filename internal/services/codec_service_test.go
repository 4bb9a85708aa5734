package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentCodec_Encode(t *testing.T) {
	codec := NewContentCodec()

	t.Run("round trips diagram source", func(t *testing.T) {
		plain := "graph TD;A-->B;B-->C"

		token := codec.Encode(plain)
		assert.NotEqual(t, plain, token)
		assert.Equal(t, plain, codec.Decode(token))
	})

	t.Run("empty input encodes to empty", func(t *testing.T) {
		assert.Equal(t, "", codec.Encode(""))
		assert.Equal(t, "", codec.Decode(""))
	})

	t.Run("compresses repetitive content", func(t *testing.T) {
		plain := strings.Repeat("sequenceDiagram\n  A->>B: hello\n", 200)

		token := codec.Encode(plain)
		assert.Less(t, len(token), len(plain))
		assert.Equal(t, plain, codec.Decode(token))
	})
}

func TestContentCodec_Decode(t *testing.T) {
	codec := NewContentCodec()

	t.Run("legacy plaintext passes through unchanged", func(t *testing.T) {
		legacy := "graph LR;Start-->End"
		assert.Equal(t, legacy, codec.Decode(legacy))
	})

	t.Run("valid base64 that is not zlib passes through", func(t *testing.T) {
		// "aGVsbG8=" decodes to "hello", which has no zlib header
		assert.Equal(t, "aGVsbG8=", codec.Decode("aGVsbG8="))
	})

	t.Run("decode is idempotent on decoded output", func(t *testing.T) {
		plain := "flowchart TB;X-->Y"
		decoded := codec.Decode(codec.Encode(plain))
		assert.Equal(t, decoded, codec.Decode(decoded))
	})
}

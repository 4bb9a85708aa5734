package services

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"io"
)

// ContentCodec obfuscates free-text fields (diagram and template source)
// before storage. The transform is zlib compression wrapped in base64,
// matching the deflate output of the web client. It is reversible
// compression, not encryption; callers must not rely on it for secrecy.
type ContentCodec struct{}

// NewContentCodec creates a new ContentCodec
func NewContentCodec() *ContentCodec {
	return &ContentCodec{}
}

// Encode compresses plain text into a storage token. Empty input encodes
// to empty.
func (c *ContentCodec) Encode(plain string) string {
	if plain == "" {
		return ""
	}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(plain)); err != nil {
		w.Close()
		return plain
	}
	if err := w.Close(); err != nil {
		return plain
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// Decode reverses Encode. Records written before the codec existed hold
// plaintext, so any failure to decode returns the input unchanged instead
// of erroring.
func (c *ContentCodec) Decode(token string) string {
	if token == "" {
		return ""
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return token
	}

	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return token
	}
	defer r.Close()

	plain, err := io.ReadAll(r)
	if err != nil {
		return token
	}
	return string(plain)
}

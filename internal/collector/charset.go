package collector

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

const defaultCharset = "UTF-8"

// ErrUnknownCharset is returned for a charset name the HTML encoding index does not know.
var ErrUnknownCharset = errors.New("unknown charset")

type charsetCodec struct {
	name string
	enc  encoding.Encoding
}

func lookupCharset(name string) (charsetCodec, error) {
	if name == "" {
		name = defaultCharset
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return charsetCodec{}, fmt.Errorf("%w %q: %v", ErrUnknownCharset, name, err)
	}
	return charsetCodec{name: name, enc: enc}, nil
}

func (c charsetCodec) isUTF8() bool {
	return c.enc == unicode.UTF8
}

func (c charsetCodec) decode(s string) (string, error) {
	if c.isUTF8() {
		return s, nil
	}
	return c.enc.NewDecoder().String(s)
}

// encode writes characters the charset cannot represent as numeric character references.
func (c charsetCodec) encode(s string) (string, error) {
	if c.isUTF8() {
		return s, nil
	}
	return encoding.HTMLEscapeUnsupported(c.enc.NewEncoder()).String(s)
}

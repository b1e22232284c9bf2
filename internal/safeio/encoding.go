package safeio

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Listings exported from mainframes are usually Latin-1; UTF-8 is accepted
// as-is with invalid sequences replaced.
const DefaultEncoding = "latin-1"

func lookup(name string) (encoding.Encoding, bool, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, false, nil
	case "latin-9", "iso-8859-15":
		return charmap.ISO8859_15, false, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, false, nil
	case "cp037", "ebcdic", "ibm037":
		return charmap.CodePage037, false, nil
	case "cp1047", "ibm1047":
		return charmap.CodePage1047, false, nil
	case "utf-8", "utf8":
		return nil, true, nil
	default:
		return nil, false, fmt.Errorf("safeio: unsupported encoding %q", name)
	}
}

// Decode converts raw listing bytes to a UTF-8 string.
func Decode(data []byte, enc string) (string, error) {
	e, utf, err := lookup(enc)
	if err != nil {
		return "", err
	}
	if utf {
		return strings.ToValidUTF8(string(data), "?"), nil
	}
	out, err := e.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Encode converts UTF-8 text back to the named encoding. Characters the
// target cannot represent are replaced.
func Encode(text, enc string) ([]byte, error) {
	e, utf, err := lookup(enc)
	if err != nil {
		return nil, err
	}
	if utf {
		return []byte(text), nil
	}
	return encoding.ReplaceUnsupported(e.NewEncoder()).Bytes([]byte(text))
}

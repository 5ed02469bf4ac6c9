package apigateway

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidPEM = errors.New("invalid PEM data")

var pemBlockPattern = regexp.MustCompile(`(?s)-----BEGIN ([A-Z0-9 ]+)-----(.*?)-----END ([A-Z0-9 ]+)-----`)

// NormalizePEM rebuilds PEM text whose line breaks were replaced by spaces (or
// dropped) on the way through a template. Every block is re-encoded with
// standard 64 column lines. Input that already parses is re-encoded too.
func NormalizePEM(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}

	matches := pemBlockPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no PEM block found", ErrInvalidPEM)
	}

	var b strings.Builder
	for _, m := range matches {
		if m[1] != m[3] {
			return "", fmt.Errorf("%w: mismatched block %q / %q", ErrInvalidPEM, m[1], m[3])
		}
		body := strings.Join(strings.Fields(m[2]), "")
		der, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return "", fmt.Errorf("%w: %s block: %v", ErrInvalidPEM, m[1], err)
		}
		if err := pem.Encode(&b, &pem.Block{Type: m[1], Bytes: der}); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPEM, err)
		}
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

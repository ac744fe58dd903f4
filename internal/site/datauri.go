package site

import (
	"encoding/base64"
	"errors"
	"strings"
)

const dataPrefix = "data:"

var errNoPayload = errors.New("data URI has no payload separator")

func isDataURI(s string) bool {
	return strings.HasPrefix(s, dataPrefix)
}

// decodeDataURI returns the payload of a data URI. The header is not
// interpreted: the payload is always treated as base64.
func decodeDataURI(s string) ([]byte, error) {
	_, payload, ok := strings.Cut(s, ",")
	if !ok {
		return nil, errNoPayload
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(payload); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

package task

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-chi/render"
)

const (
	DefaultTask  = "task1"
	DefaultRound = 1
)

var (
	ErrBadRequest = errors.New("no JSON received")
	ErrForbidden  = errors.New("invalid secret")
)

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Request is one normalized build-and-publish order.
type Request struct {
	Task          string
	Round         int
	Nonce         string
	Brief         string
	Email         string
	EvaluationURL string
	Attachments   []Attachment
}

// AttachmentNames lists every named attachment of the request in order,
// including those that are never written to disk.
func (r *Request) AttachmentNames() []string {
	names := make([]string, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

// Decode reads a JSON object from body and checks its secret. Optional
// fields that are missing or of the wrong type fall back to defaults.
func Decode(body io.Reader, secret string) (*Request, error) {
	if body == nil {
		return nil, ErrBadRequest
	}

	var fields map[string]json.RawMessage
	if err := render.DecodeJSON(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if len(fields) == 0 {
		return nil, ErrBadRequest
	}

	got, ok := stringField(fields, "secret")
	if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
		return nil, ErrForbidden
	}

	req := &Request{
		Task:  DefaultTask,
		Round: DefaultRound,
	}
	if v, ok := stringField(fields, "task"); ok {
		req.Task = v
	}
	if v, ok := roundField(fields); ok {
		req.Round = v
	}
	req.Nonce, _ = stringField(fields, "nonce")
	req.Brief, _ = stringField(fields, "brief")
	req.Email, _ = stringField(fields, "email")
	req.EvaluationURL, _ = stringField(fields, "evaluation_url")
	req.Attachments = attachmentsField(fields)

	return req, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func roundField(fields map[string]json.RawMessage) (int, bool) {
	raw, ok := fields["round"]
	if !ok || isNull(raw) {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	// 2.0 is a round, 2.5 is not.
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 {
			return int(f), true
		}
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// attachmentsField keeps one entry per array element so that malformed
// entries are skipped downstream rather than rejected here.
func attachmentsField(fields map[string]json.RawMessage) []Attachment {
	raw, ok := fields["attachments"]
	if !ok {
		return []Attachment{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Attachment{}
	}

	out := make([]Attachment, 0, len(items))
	for _, item := range items {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(item, &entry); err != nil {
			out = append(out, Attachment{})
			continue
		}
		name, _ := stringField(entry, "name")
		url, _ := stringField(entry, "url")
		out = append(out, Attachment{Name: name, URL: url})
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

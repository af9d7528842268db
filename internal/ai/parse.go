package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Miyazak1/linklore-sub001/pkg/utils"
)

// ParseResult is the outcome of leniently parsing a model reply.
// OK is false when no value could be recovered; Err then says why.
type ParseResult[T any] struct {
	Value T
	OK    bool
	Err   error
}

// ParseJSONObject recovers the first JSON object in content that decodes into T.
// Code fences and surrounding prose are tolerated.
func ParseJSONObject[T any](content string) ParseResult[T] {
	var res ParseResult[T]
	text := strings.TrimSpace(content)
	if text == "" {
		res.Err = fmt.Errorf("%w: empty reply", ErrMalformedResponse)
		return res
	}
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		res.Value, res.OK = v, true
		return res
	}
	res.Err = fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	return res
}

var numberPattern = regexp.MustCompile(`-?(?:\d+(?:\.\d+)?|\.\d+)`)

// ParseScore returns the first number in content.
func ParseScore(content string) (float64, error) {
	m := numberPattern.FindString(content)
	if m == "" {
		return 0, fmt.Errorf("%w: no number in %q", ErrMalformedResponse, utils.Truncate(content, 64))
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return v, nil
}

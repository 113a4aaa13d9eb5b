package backend

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrEmptyOutput = errors.New("backend returned no output")

// Output is the raw "output" field of a finished prediction.
type Output struct {
	raw gjson.Result
}

func NewOutput(raw string) Output {
	return Output{raw: gjson.Parse(raw)}
}

func (o Output) Raw() string { return o.raw.Raw }

// ImageReference normalizes the output to one URL: either the string itself or
// the first element of an array.
func (o Output) ImageReference() (string, error) {
	r := o.raw
	if r.IsArray() {
		arr := r.Array()
		if len(arr) == 0 {
			return "", ErrEmptyOutput
		}
		r = arr[0]
	}
	if r.Type != gjson.String {
		return "", ErrEmptyOutput
	}
	ref := strings.TrimSpace(r.String())
	if ref == "" {
		return "", ErrEmptyOutput
	}
	return ref, nil
}

// Text concatenates string chunks of a language-model output.
func (o Output) Text() string {
	if !o.raw.Exists() {
		return ""
	}
	if o.raw.IsArray() {
		var b strings.Builder
		for _, item := range o.raw.Array() {
			b.WriteString(item.String())
		}
		return b.String()
	}
	return o.raw.String()
}

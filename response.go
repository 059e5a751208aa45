package client

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Response is the final response of a request, after retries.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	// Duration covers every attempt and backoff wait.
	Duration time.Duration
	// Attempts is the number of round trips made, one more than the retries.
	Attempts int

	decodeOnce sync.Once
	decoded    any
	decodeErr  error
}

func (r *Response) Text() string {
	return string(r.Body)
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError reports a 4xx or 5xx status.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// RaiseForStatus returns a [StatusError] for 4xx and 5xx responses.
func (r *Response) RaiseForStatus() error {
	if !r.IsError() {
		return nil
	}
	return r.statusError()
}

func (r *Response) statusError() *StatusError {
	return &StatusError{
		Method:     r.Method,
		URL:        r.URL,
		StatusCode: r.StatusCode,
		Message:    errorMessage(r.Body),
		Body:       r.Body,
	}
}

// Decode parses the body as JSON on first use and caches the result.
// Objects decode to map[string]any, arrays to []any and numbers to float64.
func (r *Response) Decode() (any, error) {
	r.decodeOnce.Do(func() {
		r.decoded, r.decodeErr = decodeBody(r.Body)
	})
	return r.decoded, r.decodeErr
}

// Unmarshal decodes the body into v.
func (r *Response) Unmarshal(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return &DecodeError{Err: errEmptyBody, Body: r.Body}
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &DecodeError{Err: err, Body: r.Body}
	}
	return nil
}

func decodeBody(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &DecodeError{Err: errEmptyBody, Body: body}
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &DecodeError{Err: err, Body: body}
	}

	return v, nil
}

func (r *Response) IsJSON() bool {
	_, err := r.Decode()
	return err == nil
}

func (r *Response) IsArray() bool {
	v, err := r.Decode()
	if err != nil {
		return false
	}
	_, ok := v.([]any)
	return ok
}

// IsObjectPresentInArray reports whether the body decodes to a non-empty
// value, typically a list with at least one element.
func (r *Response) IsObjectPresentInArray() bool {
	v, err := r.Decode()
	if err != nil {
		return false
	}
	return truthy(v)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// ObjectByIndex returns element index of a JSON array body. Negative indexes
// count from the end. The element must itself be a JSON object: a scalar or
// nested list yields a [ShapeError]. Use [Response.Decode] to reach elements
// of any type.
func (r *Response) ObjectByIndex(index int) (map[string]any, error) {
	v, err := r.Decode()
	if err != nil {
		return nil, err
	}

	list, ok := v.([]any)
	if !ok {
		return nil, &ShapeError{Expected: TypeArray, Actual: TypeOf(v)}
	}

	i := index
	if i < 0 {
		i += len(list)
	}
	if i < 0 || i >= len(list) {
		return nil, &IndexError{Index: index, Length: len(list)}
	}

	obj, ok := list[i].(map[string]any)
	if !ok {
		return nil, &ShapeError{Expected: TypeObject, Actual: TypeOf(list[i])}
	}

	return obj, nil
}

// Message returns the top-level "message" field of an object body.
func (r *Response) Message() (string, bool) {
	return r.topLevelField("message")
}

// Detail returns the top-level "detail" field of an object body.
func (r *Response) Detail() (string, bool) {
	return r.topLevelField("detail")
}

func (r *Response) topLevelField(key string) (string, bool) {
	v, err := r.Decode()
	if err != nil {
		return "", false
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}

	return stringValue(obj[key])
}

// Msg returns detail[index].msg, the validation error shape used by
// FastAPI style services.
func (r *Response) Msg(index int) (string, bool) {
	v, err := r.Decode()
	if err != nil {
		return "", false
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}

	details, ok := obj["detail"].([]any)
	if !ok || index < 0 || index >= len(details) {
		return "", false
	}

	item, ok := details[index].(map[string]any)
	if !ok {
		return "", false
	}

	return stringValue(item["msg"])
}

func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	default:
		return fmt.Sprint(t), true
	}
}

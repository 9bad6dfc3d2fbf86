package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/afterdarksys/helpdesk/internal/pkg/validation"
)

// Kind classifies why an operation failed
type Kind string

const (
	KindCredentials    Kind = "credentials"
	KindValidation     Kind = "validation"
	KindSessionExpired Kind = "session_expired"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindNetwork        Kind = "network"
	KindServer         Kind = "server"
	KindBusy           Kind = "busy"
	KindInvalidState   Kind = "invalid_state"
)

// Sentinels for errors.Is matching on kind
var (
	ErrCredentials    = &Error{Kind: KindCredentials}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrSessionExpired = &Error{Kind: KindSessionExpired}
	ErrForbidden      = &Error{Kind: KindForbidden}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrNetwork        = &Error{Kind: KindNetwork}
	ErrServer         = &Error{Kind: KindServer}
	ErrBusy           = &Error{Kind: KindBusy}
	ErrInvalidState   = &Error{Kind: KindInvalidState}
)

// Error is the typed failure every helpdesk operation reports
type Error struct {
	Kind      Kind
	Status    int
	Message   string
	Fields    map[string][]string
	RequestID string
	Err       error

	body errorBody
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, ErrBusy) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// NewError constructs an Error of the given kind
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind carried by err, or "" when err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the user-facing message of err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// ValidationError converts local input validation failures into a
// validation Error naming the missing fields. Other errors pass through.
func ValidationError(err error, fallback string) error {
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		return err
	}
	msg := fallback
	if missing := fe.Missing(); len(missing) > 0 {
		msg = "Missing required fields: " + strings.Join(missing, ", ")
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fe}
}

// kindForStatus maps an HTTP status to an error kind
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindSessionExpired
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

// errorBody is the decoded form of an API error response
type errorBody struct {
	Text   string
	Detail string
	Error  string
	Fields map[string][]string
}

// parseErrorBody decodes the error shapes the API produces: a bare string,
// {"detail": "..."}, {"error": ...} or {"field": ["msg", ...]}.
func parseErrorBody(data []byte) errorBody {
	var out errorBody
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return out
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		out.Text = s
		return out
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return out
	}
	for key, val := range raw {
		msgs := flattenMessages(val)
		switch key {
		case "detail":
			out.Detail = strings.Join(msgs, " ")
		case "error":
			out.Error = strings.Join(msgs, " ")
		default:
			if len(msgs) == 0 {
				continue
			}
			if out.Fields == nil {
				out.Fields = map[string][]string{}
			}
			out.Fields[key] = msgs
		}
	}
	return out
}

func flattenMessages(val json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(val, &s); err == nil {
		return []string{s}
	}
	var list []json.RawMessage
	if err := json.Unmarshal(val, &list); err == nil {
		var out []string
		for _, item := range list {
			out = append(out, flattenMessages(item)...)
		}
		return out
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(val, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, flattenMessages(obj[k])...)
		}
		return out
	}
	return nil
}

// fieldOrder returns field names sorted so messages are deterministic
func (b errorBody) fieldOrder() []string {
	keys := make([]string, 0, len(b.Fields))
	for k := range b.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FirstMessage picks the message shown for a failed ticket submission:
// field-level errors first, then detail, then the fallback.
func (b errorBody) FirstMessage(fallback string) string {
	for _, k := range b.fieldOrder() {
		if msgs := b.Fields[k]; len(msgs) > 0 {
			return strings.Join(msgs, " ")
		}
	}
	if b.Detail != "" {
		return b.Detail
	}
	if b.Text != "" {
		return b.Text
	}
	if b.Error != "" {
		return b.Error
	}
	return fallback
}

// RegistrationMessage picks the message shown for a failed sign-up: a bare
// string, then the username field, then detail, then error.
func (b errorBody) RegistrationMessage(fallback string) string {
	switch {
	case b.Text != "":
		return b.Text
	case len(b.Fields["username"]) > 0:
		return strings.Join(b.Fields["username"], " ")
	case b.Detail != "":
		return b.Detail
	case b.Error != "":
		return b.Error
	}
	return b.FirstMessage(fallback)
}

// AngelaMos | 2026
// echo.go

package experience

import (
	"html"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// Echoer stamps submitted experience drafts without storing them.
type Echoer struct {
	policy *bluemonday.Policy
	now    func() time.Time
}

func NewEchoer() *Echoer {
	return &Echoer{
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

// Echo strips markup from every string in draft and sets id and created_at,
// replacing any the client sent.
func (e *Echoer) Echo(draft map[string]any) map[string]any {
	out := e.sanitizeMap(draft)
	out["id"] = uuid.New().String()
	out["created_at"] = e.now().UTC().Format(time.RFC3339)
	return out
}

func (e *Echoer) sanitizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+2)
	for k, v := range m {
		out[e.sanitizeString(k)] = e.sanitize(v)
	}
	return out
}

func (e *Echoer) sanitize(v any) any {
	switch t := v.(type) {
	case string:
		return e.sanitizeString(t)
	case map[string]any:
		return e.sanitizeMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = e.sanitize(item)
		}
		return out
	default:
		return v
	}
}

const maxSanitizePasses = 4

// sanitizeString strips markup and unescapes the result, repeating until the
// text is stable so entity-encoded tags cannot survive as live markup. Input
// that never settles is returned still escaped.
func (e *Echoer) sanitizeString(s string) string {
	for range maxSanitizePasses {
		clean := html.UnescapeString(e.policy.Sanitize(s))
		if clean == s {
			return clean
		}
		s = clean
	}
	return e.policy.Sanitize(s)
}

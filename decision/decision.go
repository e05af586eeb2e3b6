// Package decision builds the Allow/Deny answer handed back to the gateway.
//
// Every constructor runs the attached context through Sanitize, so a
// Decision never carries structured values or strings longer than
// MaxContextValueLength characters.
package decision

import (
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Effect is the verdict of a decision.
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

const (
	// AnonymousPrincipal is the principal of every Deny.
	AnonymousPrincipal = "anonymous"

	// MaxContextValueLength bounds the string form of a context value, in
	// characters.
	MaxContextValueLength = 1000

	// ReasonKey is the context key carrying a deny reason.
	ReasonKey = "reason"
)

// Decision is the outcome of one authorization request.
type Decision struct {
	PrincipalID string
	Effect      Effect
	Resource    string
	Context     map[string]any
}

// Allow grants principalID access to resource.
func Allow(principalID, resource string, context map[string]any) *Decision {
	return &Decision{
		PrincipalID: principalID,
		Effect:      EffectAllow,
		Resource:    resource,
		Context:     Sanitize(context),
	}
}

// Deny refuses access to resource. reason is placed in the context under
// ReasonKey and must be one of the fixed reason strings, never error text.
func Deny(resource, reason string) *Decision {
	return &Decision{
		PrincipalID: AnonymousPrincipal,
		Effect:      EffectDeny,
		Resource:    resource,
		Context:     Sanitize(map[string]any{ReasonKey: reason}),
	}
}

// Allowed reports whether the decision grants access.
func (d *Decision) Allowed() bool {
	return d != nil && d.Effect == EffectAllow
}

// Reason returns the deny reason, or the empty string.
func (d *Decision) Reason() string {
	if d == nil {
		return ""
	}
	reason, _ := d.Context[ReasonKey].(string)
	return reason
}

// Sanitize returns a copy of context safe to hand to the gateway.
//
// Strings, booleans and numbers are kept as they are when their string form
// is at most MaxContextValueLength characters. Anything else is converted to
// its string form (JSON for maps and slices) and cut to that length. Nil
// values are dropped.
func Sanitize(context map[string]any) map[string]any {
	sanitized := make(map[string]any, len(context))
	for key, value := range context {
		if value == nil {
			continue
		}

		text, scalar := stringForm(value)
		if scalar && utf8.RuneCountInString(text) <= MaxContextValueLength {
			sanitized[key] = value
			continue
		}
		sanitized[key] = truncate(text, MaxContextValueLength)
	}
	return sanitized
}

func stringForm(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case json.Number:
		return v.String(), true
	case fmt.Stringer:
		return v.String(), false
	}

	if encoded, err := json.Marshal(value); err == nil {
		return string(encoded), false
	}
	return fmt.Sprint(value), false
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

package authorizer

import (
	"net/http"
	"strings"
)

// WildcardResource is used when a request names no resource.
const WildcardResource = "*"

// Request is the inbound authorization request, shaped like an API Gateway
// REQUEST authorizer event.
type Request struct {
	Type                  string            `json:"type,omitempty"`
	MethodArn             string            `json:"methodArn"`
	QueryStringParameters map[string]string `json:"queryStringParameters,omitempty"`
	Headers               map[string]string `json:"headers,omitempty"`
}

// Resource returns the protected resource the decision applies to.
func (r *Request) Resource() string {
	if r == nil || r.MethodArn == "" {
		return WildcardResource
	}
	return r.MethodArn
}

// Header returns the value of the named header. Gateways do not agree on
// header casing, so the lookup ignores case.
func (r *Request) Header(name string) string {
	if r == nil {
		return ""
	}
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// QueryParameter returns the value of the named query string parameter.
func (r *Request) QueryParameter(name string) string {
	if r == nil {
		return ""
	}
	return r.QueryStringParameters[name]
}

// FromHTTPRequest converts an HTTP request into a Request. The resource is
// "<METHOD> <path>". Only the first value of repeated headers and query
// parameters is kept.
func FromHTTPRequest(r *http.Request) *Request {
	req := &Request{
		Type:                  "REQUEST",
		MethodArn:             r.Method + " " + r.URL.Path,
		QueryStringParameters: make(map[string]string),
		Headers:               make(map[string]string, len(r.Header)),
	}

	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			req.QueryStringParameters[name] = values[0]
		}
	}
	for name, values := range r.Header {
		if len(values) > 0 {
			req.Headers[name] = values[0]
		}
	}

	return req
}

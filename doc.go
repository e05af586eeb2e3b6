/*
Package authorizer decides whether a request carrying a Cognito access
token may reach the protected API.

Authorize never fails. It always returns a *decision.Decision, either Allow
with the token's subject as principal or Deny with principal "anonymous"
and one fixed reason:

	missing_token                 no token in the request
	token_expired                 the exp claim is in the past
	invalid_token: <code>         the token was rejected; code is a validator.ErrorCode
	error                         the token could not be judged (key set unavailable, panic)

Error details are logged and never placed in a decision.

# Wiring

	issuerURL, _ := url.Parse(cognitoURL)

	fetcher, err := jwks.NewHTTPFetcher(jwks.WithIssuerURL(issuerURL))
	if err != nil {
	    log.Fatal(err)
	}
	cache, err := jwks.NewKeyCache(fetcher, jwks.WithObserver(authorizer.KeySetObserver(metrics)))
	if err != nil {
	    log.Fatal(err)
	}
	resolver, err := jwks.NewResolver(cache)
	if err != nil {
	    log.Fatal(err)
	}
	v, err := validator.New(validator.WithIssuer(cognitoURL), validator.WithClientID(appClientID))
	if err != nil {
	    log.Fatal(err)
	}

	a, err := authorizer.New(
	    authorizer.WithKeyResolver(resolver),
	    authorizer.WithTokenVerifier(v),
	    authorizer.WithMetrics(metrics),
	)

# Requests

Request mirrors an API Gateway REQUEST authorizer event. FromHTTPRequest
builds one from an *http.Request. By default the token is read from the
"token" query string parameter, since browsers cannot attach headers to a
WebSocket handshake; WithTokenExtractor selects another source, for
example AuthHeaderTokenExtractor or a MultiTokenExtractor chain.

# HTTP

CheckRequest wraps an http.Handler. Allowed requests reach the handler with
their claims available through GetClaims. Denied requests are answered by
the ErrorHandler: 400 for a missing token, 401 for a rejected one and 500
when the token could not be judged. Adapters for gin, echo and gRPC live
under integrations/.

# Observability

Loggers follow the log/slog method set; NewZapLogger, NewLogrusLogger and
NewZerologLogger adapt the common logging libraries. NewPrometheusMetrics
records decisions by effect and reason, and KeySetObserver records key set
fetches. NewOpenTelemetryTracer wraps each call in an
"authorizer.Authorize" span.
*/
package authorizer

// Package auth provides optional bearer-token authentication for hubspot-gateway.
//
// When auth.jwt_secret is configured, clients must present an HS256-signed JWT
// on the stream-open and message-post endpoints, either as an Authorization
// bearer header or (for SSE clients that cannot set headers) a "token" query
// parameter. When no secret is configured the endpoints are anonymous.
//
// Tokens carry the client identity in the "sub" claim:
//
//	verifier, _ := auth.NewJWTVerifier([]byte(secret))
//	token, _ := verifier.Generate("client-name", 30*24*time.Hour)
//	sub, err := verifier.Verify(token)
package auth

// Package auth provides optional bearer-token authentication for the JSON API.
//
// Tokens are HS256 JWTs whose "sub" claim names the caller. JWTVerifier both
// mints them (crm token) and checks them (RequireBearer middleware). The
// verified subject is stored on the request context and read back with
// FromContext.
package auth

// Package api talks to the upstream account service over HTTP.
//
// It resolves two things:
//   - the user identity, once, by logging in with the operator's credentials
//   - the device descriptor, before every proxy connection attempt and on
//     every quality check
//
// A failed login is fatal for the caller: without an identity no proxy
// session is possible. A failed device lookup is an ordinary "no result"
// that the caller retries.
//
// All calls go through a single httpretry.Client whose underlying
// http.Client keeps cookies between the login and the device lookups.
package api

// Package client is the caller side of the portal: an explicit Session that
// holds the access token and a request/response log, talks to a running
// portal over HTTP, and drives the test-harness workflow.
//
// There is no silent token refresh. Queries check the token first and
// return ErrTokenRequired or ErrTokenExpired without sending anything; a
// 401 from the register surfaces as *AuthError and the caller has to
// authenticate again.
//
// A Session is meant for one logical user and is not safe for concurrent
// use.
package client

// Package auth holds the authentication core of the todo API: password
// credentials, signed bearer tokens, the per-request identity and the
// ownership check applied to todo records.
//
// Everything here is a pure function of its inputs apart from the random salt
// in HashPassword and the clock read by TokenService.
package auth

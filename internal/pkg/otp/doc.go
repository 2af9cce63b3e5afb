// Package otp derives and checks time-based one-time passwords (RFC 6238).
//
// Every call receives its algorithm, digit count and period explicitly, so one
// generator value can serve concurrent requests for entries with different
// parameters.
package otp

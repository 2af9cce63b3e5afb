// Package jwt verifies the bearer tokens issued by the identity service and
// carries the authenticated owner through the request context.
package jwt

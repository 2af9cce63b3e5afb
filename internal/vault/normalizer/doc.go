// Package normalizer converts the interchange formats the vault accepts into
// canonical entries and back.
//
// Single entries travel as otpauth:// URIs. Bulk payloads are JSON in one of
// several shapes; ParseBulk detects the shape by its discriminant field and
// hands every record to Validate on its own, so one bad record never spoils
// the batch.
package normalizer

// Package schema defines the canonical movie record and its validation rules.
//
// A MovieRecord is the unit of enrichment and persistence. Nested optional
// sub-records (personality profiles, genre mix, tag set, related-movie slots)
// are pointers: a nil pointer means "absent", a non-nil pointer must validate
// in full. Validation never accepts a partially-formed sub-record.
package schema

// Package enrich implements the per-field-group enrichers: the model calls
// that fill a movie record, the field transformers that coerce loose model
// output into schema-valid sub-structures, and the relationship normalizer.
package enrich

// Package export renders audit records as JSON or CSV.
package export

// Package html provides a Normaliser implementation for HTML documents.
// It walks the token stream, dropping scripts, styles and other non-text
// elements, and keeps block structure as line breaks.
package html

// Package normalisers turns files into plain text before ingestion.
//
// Each sub-package handles one family of formats. The Registry picks the
// highest priority normaliser for a file's MIME type, which MIMETypeFor
// derives from the file extension.
package normalisers

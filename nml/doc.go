// Package nml compiles NML, an indentation-based markup language with state declarations and
// event handlers, into self-contained HTML documents with a minimal reactive runtime.
//
// The pipeline is Tokenize → Parse → Generate. Compilation never fails: constructs that cannot
// be compiled are skipped or passed through and reported as Diagnostics.
package nml

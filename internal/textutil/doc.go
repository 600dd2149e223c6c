// Package textutil provides the text analysis shared by the index backends
// and the alias engine.
//
// Analyze is the single tokenizer used for both indexing and querying, so a
// document and a query always agree on token boundaries: text is
// transliterated to ASCII, lowercased, stripped of apostrophes, and split on
// anything that is not a letter or digit. Fold and EqualFold implement exact
// case-insensitive comparison with Unicode case folding.
package textutil

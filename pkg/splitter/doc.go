/*
Package splitter turns one raw input value into the ordered sequence of symbols
a machine consumes.

Each strategy accepts exactly one input shape and fails with a
*domain.InputShapeError (matching domain.ErrInputShape) instead of coercing:

  - Chars: a string, one symbol per rune (the default).
  - Whole: a string, as a single symbol.
  - Whitespace: a string, split on runs of white space.
  - Comma: a string, split on ",".
  - Regex: a string, split on a regular expression.
  - List: an already segmented slice.
*/
package splitter

// Package core imports delimited text, record and grid sources into
// numeric tables.
//
// The package is independent of any transport layer. Web handlers, the CLI
// and tests all drive it through [Import], [Preview] and [Service].
//
// # Import Pipeline
//
// A single import runs in fixed stages:
//
//  1. The source is pre-scanned to count its records.
//  2. The row window is clipped against that count ([ResolveWindow]).
//  3. The first record of the window that is neither a comment nor empty
//     yields the column names and width ([ResolveSchema]). Records skipped
//     to reach it are taken out of the window.
//  4. Destination columns are appended, prepended or replaced ([Merge]).
//  5. Records are parsed into the new columns; missing or malformed fields
//     become NaN.
//
// A source that cannot be opened leaves the destination untouched and is
// not an error. Range and destination errors leave the table as it was
// before the merge step.
//
// # Sources
//
// Readers register a factory with [RegisterReader]. A source implements one
// of [LineSource], [FieldSource] or [GridSource]; line sources are split by
// [Tokenize], field sources arrive pre-split and grid sources are read
// cell by cell.
//
// # Service
//
// [Service] owns a workspace of named tables and runs uploads as background
// jobs, limited by an [ImportLimiter]. Progress is broadcast to subscribers
// via [Service.SubscribeProgress]; finished jobs are kept in a bounded
// history.
//
// # Error Handling
//
// Errors are wrapped with context. [MapError] turns them into a
// [UserMessage] with a support code for display.
package core

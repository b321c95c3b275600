// Package logtail reads the tail of the femg log file for `femg logs`.
//
// # Overview
//
// The log file is written by internal/logging as one JSON object per line.
// This package extracts the last N lines without loading the whole file and
// turns them back into readable entries.
//
//  1. Read: last maxLines lines of a file (ring buffer, one pass)
//  2. Parse: decode one JSON line into an Entry
//  3. Filter: decode many lines, dropping entries below a level
//
// # Reading Log Files
//
// Read scans the file once and keeps only the last maxLines lines in a ring
// buffer, so memory use is O(maxLines) regardless of file size. A missing file
// is not an error: femg may not have logged anything yet.
//
//	lines, err := logtail.Read("~/.local/state/femg/femg.log", 200)
//
// # Entries
//
// Entry.String renders a line the way the terminal shows it:
//
//	2026-10-18 09:30:00 ERROR [femg.backend] – remote call failed action=get_admins
//
// Lines that are not JSON (a panic trace, output from an older build) are
// kept verbatim in Entry.Raw and always pass Filter.
package logtail

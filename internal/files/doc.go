// Package files provides report file discovery and archive management
// for the batch ingester.
//
// Discovery scans a directory for daily report files, resolves each
// file's trading date from its content or name, and returns them in
// trading order. Manager moves processed reports into an archive so a
// re-run does not re-ingest them.
package files

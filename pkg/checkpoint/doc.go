// Package checkpoint persists a run's result collection.
//
// Each run owns two files under its output root:
//   - scrape.json (or scrape_<shard>.json): written once when the run completes
//   - scrape.json.backup: the checkpoint, overwritten at persist boundaries
//     and removed after the final write
//
// Both are JSON arrays of item records with two-space indentation, written
// to a temporary file and renamed into place so a crash never leaves a
// truncated file behind. An interrupted run leaves its last checkpoint for
// inspection or for a --resume run to pick up.
package checkpoint

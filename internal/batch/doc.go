// Package batch runs the scraper over a list of listing generators.
//
// A batch file is a JSON or YAML list of entries. Each entry names a
// generator, either a full listing URL or a bare meme code. Missing codes
// and URLs are derived and written back to the file in its original format.
// Entries run on a worker pool; each walk gets its own output directory
// and shard id, so entries never share a checkpoint.
package batch

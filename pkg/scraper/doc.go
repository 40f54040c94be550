// Package scraper walks a paginated listing and harvests item records.
//
// A Walker moves through three states:
//
//	fetching   -> the current page is fetched and parsed (bounded retry)
//	extracting -> item blocks are processed in document order
//	done       -> the output file is written and the checkpoint removed
//
// Every accepted item runs the field parsers and the media fetcher and is
// appended to the run's Collection. Every CheckpointEvery accepted items the
// whole collection is persisted to the checkpoint. Reaching the target stops
// the walk immediately, even in the middle of a page. A page without a next
// link ends the walk below target, which is not an error.
//
// Usage:
//
//	w, err := scraper.NewFromConfig(cfg, "https://imgflip.com/meme/Drake-Hotline-Bling", nil, log)
//	if err != nil {
//	    return err
//	}
//	summary, err := w.Run(ctx)
//
// A blocking pause (rate_limit.item_delay) follows every processed block
// unless that block ended the run.
package scraper

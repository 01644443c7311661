// Package webot orchestrates send/receive cycles against browser-only AI
// chat products.
//
// The package is built around four collaborators:
//
//  1. Bot: sequences one cycle end to end (stage attachments, prepare the
//     chat page, upload, submit, wait, extract, persist)
//  2. Site: the per-product hooks a variant package supplies (login
//     requirement, reply extraction, copy control, wait budgets)
//  3. Watcher: the completion-detection state machine over polled reply
//     text
//  4. Uploader: attachment validation, directory manifests, and upload
//     execution
//
// # Completion detection
//
// The target pages expose no structured end-of-generation event, so the
// Watcher infers completion from the text itself: a reply is done when a
// site-specific closing phrase appears at its tail, when its length stops
// changing for enough consecutive polls, or when no growth happens for a
// quiet period. Sites with an explicit busy indicator (a stop button)
// plug it in through WatcherOptions.Busy, which vetoes stability-based
// completion while set.
//
// Every waiting phase is bounded. Exceeding a budget is a soft failure:
// the cycle returns its best observation, possibly empty, never an error.
//
// # Variants
//
// Product packages (deepseek, qianwen, doubao) implement Site and
// register a constructor under their plugin name via RegisterSite; a
// Registry then assembles bots from on-disk configs. One Bot owns one
// browser session and all of its cycle state, and must be driven from a
// single goroutine.
package webot

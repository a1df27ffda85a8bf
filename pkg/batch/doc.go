// Package batch assembles analysis payloads from configuration trees and
// packs them into size-bounded batches.
//
// A [Payload] holds every tree (as base-relative paths), the contents of
// every file and the SSL references found in them. [Pack] splits it greedily
// into [Batch] values whose estimated JSON size stays under a byte limit.
// Trees are never split across batches; a single tree that is larger than
// the limit on its own is sent as an oversized batch rather than dropped.
//
// The JSON field names of [Batch] (`trees`, `files`, `sslFiles`, and
// `batchIndex`/`totalBatches` for multi-batch runs) are the wire contract
// with the remote analyzer.
package batch

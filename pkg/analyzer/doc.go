// Package analyzer sends batches to the remote nginx analyzer and decodes
// its verdicts.
//
// # Protocol
//
// Each batch is POSTed as JSON to the analyze endpoint:
//
//	{"key": "...", "strict": false, "trees": [...], "files": {...},
//	 "sslFiles": [...], "environment": "", "batchIndex": 0, "totalBatches": 2}
//
// batchIndex and totalBatches are only present when a run was split into
// several batches. All requests of a run share one X-Request-ID header.
//
// # Transport
//
// Bodies are gzip-compressed by default. A server that answers 415
// Unsupported Media Type gets the same request again uncompressed, and the
// client stops compressing for the rest of its life. Network failures and
// 502, 503 and 504 responses are retried with exponential backoff.
//
// # Errors
//
// Failures carry a code from package errors:
//
//   - 401: UNAUTHORIZED, "Invalid or missing API key"
//   - 402: a [*QuotaExceededError] (code QUOTA_EXCEEDED)
//   - other non-2xx: SERVER_ERROR with the server's message
//   - undecodable 2xx body: INVALID_RESPONSE
//   - transport failure: NETWORK_ERROR, "Request failed: ..."
package analyzer

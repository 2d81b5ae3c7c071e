// Package sink defines the shipping boundary for observation payloads.
// Two concrete implementations exist: httpsink (POST to the ingestion
// service) and objectstore (write to an S3-like bucket), selected at
// startup by the enable_s3 config flag.
package sink

import "context"

// Kind names one of the five shippable observation categories plus the
// health heartbeat, used to select per-kind timeouts, compression, and
// endpoint/key naming.
type Kind string

const (
	KindDBLevel          Kind = "DB"
	KindTableLevel       Kind = "TABLE"
	KindLongRunningQuery Kind = "LONG_RUNNING_QUERY"
	KindQuery            Kind = "QUERY"
	KindSchema           Kind = "SCHEMA"
	KindHealth           Kind = "HEALTH"
)

// Gzipped reports whether payloads of this kind are shipped
// gzip-compressed: long-running-query, query, and schema are; DB-level,
// table-level, and health are not.
func (k Kind) Gzipped() bool {
	switch k {
	case KindLongRunningQuery, KindQuery, KindSchema:
		return true
	default:
		return false
	}
}

// Sink ships one observation payload of the given kind. body is the
// already-JSON-marshaled payload; sinks handle compression and transport
// framing themselves.
type Sink interface {
	Ship(ctx context.Context, kind Kind, body []byte) error
}

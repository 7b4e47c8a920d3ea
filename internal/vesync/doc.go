// Package vesync defines the vendor cloud collaborator surface.
//
// The bridge never talks HTTP itself; it consumes an opaque client that
// owns login, inventory fetching, and per-device RPC calls. This
// package holds the interfaces that client must satisfy, the snapshot
// types it produces, and the error taxonomy the rest of the bridge uses
// to classify its failures.
//
// A boolean false return from a vendor call is a soft failure: the call
// completed but the cloud rejected it. Callers treat it as an error
// even though no Go error is returned.
//
// # Raw fields
//
// Device detail snapshots carry a Raw map of per-model fields. Shapes
// vary wildly between models: speed may be "speed" or "level", filter
// life may be a bare number or an object with a "percent" key, air
// quality may be a PM2.5 density or a pre-bucketed level. The classify
// and convert packages absorb those differences; nothing else should
// reach into Raw.
package vesync

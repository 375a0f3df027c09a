// Package persistence serializes rule sets into a compact binary container.
//
// A container starts with a fixed-size little-endian FileHeader followed by
// the (optionally compressed) payload. The payload holds the feature schema
// referenced by the rules, the shared label and, per member, its condition
// map together with the five coverage bitmaps in roaring portable format.
// Decoding validates the header, the CRC32 checksum of the stored payload and
// the coverage partition of every member.
//
// Repository stores containers in a blobstore.Store under versioned keys and
// maintains a CURRENT pointer per rule-set name.
package persistence

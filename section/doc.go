// Package section models the fixed-layout, little-endian on-disk structures
// that make up a CZI file: the 32-byte segment header, the 512-byte file
// header, subblock directory entries (DE legacy + DV current schema) and
// attachment directory entries.
//
// Every type here follows the same shape: a plain struct holding the
// decoded fields, a package-level Parse function (ParseSegmentHeader,
// ParseFileHeader, ParseDirectoryEntry, ...) that decodes it from a byte
// slice and returns it, and a Bytes emitter (the entry types take the endian
// engine in both), so segment readers/writers can treat parsing and serialization
// as pure, allocation-light functions.
package section

// Package wal provides the implementation of a region-scoped write-ahead log.
//
//   - The write-ahead log intermingles edits to many regions of many tables. Every entry therefore carries a key which
//     names the region and table the edit belongs to, places the edit in the total order of its region and tags it
//     with the replication cluster it originated from.
//   - Entries are stored in segment files. Each segment file consists of a file header describing some details of the
//     entries stored in the segment. After the file header, the entries follow one after the other. All segment files
//     are assumed to be located in the same directory. Every segment file has the sequence number of its first entry
//     as its file name, padded with leading zeros to be 20 characters in length with a `.wal` file extension.
//   - The write-ahead log abstracts away the fact that entries are stored in segment files and provides a uniform
//     interface for reading and writing keyed entries without knowing those details.
//   - Sequence numbers uniquely identify every entry. They are monotonically increasing and are assigned by the append
//     path, which is the only place allowed to fix the position of an entry in the log.
package wal

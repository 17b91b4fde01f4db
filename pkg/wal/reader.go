package wal

import intwal "github.com/backbone81/region-wal/internal/wal"

// Reader provides functionality to read the write-ahead log. It abstracts away the fact that the write-ahead log is
// split into multiple segments and decodes the entry key of every record.
//
// Instances of this struct are NOT safe for concurrent use. Either use it on a single Go routine or provide your own
// external synchronization.
type Reader = intwal.Reader

// ReaderValue is the value returned by the Reader.
type ReaderValue = intwal.ReaderValue

// NewReader creates a new Reader starting at the given sequence number. It will find the segment the sequence number
// belongs to and read all entries up until the requested sequence number.
var NewReader = intwal.NewReader

// ErrEntryNone is returned by Err when no entry could be read. This indicates either a corrupt entry or the end of
// the written entries.
var ErrEntryNone = intwal.ErrEntryNone

// ErrRecordMalformed is returned by Err when an entry could be read but its record could not be decoded.
var ErrRecordMalformed = intwal.ErrRecordMalformed

// MergeReader merges the entries of several write-ahead logs into a single stream ordered by key.
//
// Instances of this struct are NOT safe for concurrent use. Either use it on a single Go routine or provide your own
// external synchronization.
type MergeReader = intwal.MergeReader

// NewMergeReader creates a MergeReader over the given readers.
var NewMergeReader = intwal.NewMergeReader

// MergeOption describes the function signature which all merge reader options need to implement.
type MergeOption = intwal.MergeOption

// WithSkipCluster drops all entries which originated from the given cluster.
var WithSkipCluster = intwal.WithSkipCluster

// WithKeyCache interns the region and table names of every yielded key in the given cache.
var WithKeyCache = intwal.WithKeyCache

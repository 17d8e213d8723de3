// Package storage defines the object storage contract used by file handlers
// that keep attachment bytes outside the database. Backends live in
// subpackages: local (filesystem) and s3 (Amazon S3 and compatible
// services). storage/testutil provides an in-memory backend.
package storage

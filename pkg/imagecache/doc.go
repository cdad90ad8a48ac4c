/*
This package resolves image references to decoded images, given a
backing k-v store for the encoded bytes.

The interface `Client` stands in for the store (a directory on disk,
redis, an S3-compatible bucket, or memcached in the subpackage); keys
are the MD5 digest of the reference, so the same reference always
lands in the same slot. Entries are never refreshed or evicted.

The `Resolver` looks in the store before going to the network, and
remembers every result, good or bad, for the rest of the session.
*/
package imagecache

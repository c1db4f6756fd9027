// Package imagestore uploads overcloud images to the undercloud image
// service, or to an S3-compatible bucket.
//
// Every image records the MD5 of its content. An upload whose local
// checksum matches the stored one is skipped, and an existing image is only
// replaced when updates are requested, after it has been archived under a
// timestamped name. Glance uploads are checked against the checksum the
// service computes.
package imagestore

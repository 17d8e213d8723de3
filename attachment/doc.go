// Package attachment defines the persisted file attachment records:
// FileAttachment holds the metadata of an uploaded file and FileBlob
// holds the bytes of files saved in the database.
package attachment

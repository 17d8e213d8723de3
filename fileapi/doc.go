// Package fileapi exposes the attachment operations over HTTP with Gin.
//
//	POST   /files           multipart upload (field "file", optional "mode", "extra")
//	GET    /files           paged listing (page, pageSize, sortBy, order, search, field=op.value)
//	GET    /files/:id       download the bytes
//	GET    /files/:id/info  attachment record
//	GET    /files/:id/name  file name only
//	DELETE /files/:id       delete record and bytes
//
// Unknown ids answer 404 with an empty data envelope.
package fileapi

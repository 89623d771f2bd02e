// Package upload ships captured videos to a public media host and reports the
// resulting URL.
//
// Two backends implement Uploader: CloudinaryClient posts an unsigned
// multipart upload (fields "file" and "upload_preset") and reads
// "secure_url" from the response; S3Client puts the object into an
// S3-compatible bucket (AWS, R2, MinIO) and derives the URL from a configured
// public base. Neither retries internally. Each call returns a Result that
// classifies the outcome as success, transport failure, or rejected
// response, and flags whether another attempt could help so the delivery
// pipeline can apply its own retry policy.
package upload

// Package file classifies uploaded blobs and stores them in an object store.
//
// The package has two halves. The first is a set of pure functions over call-local
// data: Sniff detects image formats from leading magic bytes, ClassifyUpload and
// ClassifyImage decide whether a Candidate is acceptable, and GenerateKey builds a
// collision-resistant storage key. The second is the ObjectStore interface and its
// backends:
//   - S3Storage: Amazon S3 and S3-compatible services through aws-sdk-go-v2
//   - MinIOStorage: MinIO through minio-go
//   - LocalStorage: a filesystem backend for development, with HMAC signed URLs
//
// # Classification
//
// The generic upload policy enforces a size limit on the actual byte length and an
// exact match of the declared MIME type against UploadMIMETypes. The image policy
// applies the same size limit and then accepts on the first of three signals:
// declared MIME type, lowercase filename extension, binary signature.
//
//	v := file.ClassifyImage(file.Candidate{
//		Data:     data,
//		MIMEType: "application/octet-stream",
//		Filename: "photo.JPG",
//	}, file.DefaultMaxUploadSize)
//	if !v.Accepted() {
//		return v.Err()
//	}
//	if v.Fallback() {
//		log.Warn("declared type disagrees with content", "via", v.Via)
//	}
//
// # Storage
//
//	store, err := file.NewS3Storage(ctx, file.S3Config{
//		Bucket: "my-bucket",
//		Region: "us-east-1",
//	})
//	if err != nil {
//		return err
//	}
//
//	key := file.GenerateKey("uploads", "report.pdf")
//	if err := store.Put(ctx, key, data, "application/pdf", nil); err != nil {
//		return err
//	}
//	signed, err := store.Sign(ctx, key, 0) // defaults to one hour
//
// # Error Handling
//
// Put errors wrap ErrStorageWriteFailed, Sign errors wrap ErrStorageSignFailed and
// Exists errors wrap ErrStorageReadFailed. Backend causes are classified into
// sentinels such as ErrAccessDenied or ErrOperationTimeout and joined with the
// category, so both can be matched with errors.Is. Exists reports a genuine
// not-found as (false, nil). Delete never returns an error; failures, including a
// missing key, are described in DeleteResult.
package file

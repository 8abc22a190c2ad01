// Package ingest validates uploaded files and writes accepted ones to an object store.
//
// Service wires the classifier, key generator and a file.ObjectStore together.
// IngestFile applies the generic upload policy and IngestImage the image policy;
// rejections wrap ErrInvalidFile or ErrInvalidImage and never reach the network.
// Accepted files are stored under "<folder>/<uuid>.<ext>" with the original name and
// upload time as object metadata.
//
//	svc := ingest.NewService(store,
//		ingest.WithLogger(log),
//		ingest.WithObserver(observer),
//	)
//	obj, err := svc.IngestImage(ctx, ingest.IncomingFile{
//		Bytes:        data,
//		MIMEType:     "image/png",
//		OriginalName: "avatar.png",
//	}, "avatars")
//
// Generating the key, writing the object and building the URL are not atomic.
// WithVerifyAfterPut adds an existence check after the write for callers that need it.
package ingest

package commands

import (
	"context"

	"github.com/dmitrymomot/integrations/pkg/ingest"
	"github.com/dmitrymomot/integrations/pkg/logger"
	"github.com/dmitrymomot/integrations/pkg/rpc"
)

// UploadFile mirrors the multipart file fields of the calling service.
type UploadFile struct {
	Buffer       Buffer `json:"buffer" validate:"required"`
	OriginalName string `json:"originalname" validate:"max=255"`
	MIMEType     string `json:"mimetype" validate:"required"`
	Size         int64  `json:"size" validate:"gte=0"`
}

// UploadRequest is the payload of files.upload and files.uploadImage.
type UploadRequest struct {
	File   UploadFile `json:"file"`
	Folder string     `json:"folder" validate:"omitempty,max=128,excludes=.."`
}

// UploadResponse describes the stored object.
type UploadResponse struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Bucket   string `json:"bucket"`
	Location string `json:"location"`
}

// KeyRequest addresses a single object.
type KeyRequest struct {
	Key string `json:"key" validate:"required,max=1024"`
}

// DeleteResponse is the best-effort delete outcome.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SignedURLRequest is the payload of files.getSignedUrl.
type SignedURLRequest struct {
	Key       string `json:"key" validate:"required,max=1024"`
	ExpiresIn int    `json:"expiresIn" validate:"gte=0,lte=604800"`
}

// SignedURLResponse carries a time-limited URL.
type SignedURLResponse struct {
	Success   bool   `json:"success"`
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"`
}

// ExistsResponse reports object presence.
type ExistsResponse struct {
	Success bool   `json:"success"`
	Exists  bool   `json:"exists"`
	Key     string `json:"key"`
}

// BucketInfoResponse identifies the storage target.
type BucketInfoResponse struct {
	Success bool   `json:"success"`
	Bucket  string `json:"bucket"`
	Region  string `json:"region"`
}

func registerFiles(r *rpc.Router, deps Deps) {
	svc := deps.Files
	log := deps.Logger

	upload := func(ingestFn func(context.Context, ingest.IncomingFile, string) (*ingest.StoredObject, error)) rpc.HandlerFunc {
		return rpc.Handle(func(ctx context.Context, req UploadRequest) (UploadResponse, error) {
			obj, err := ingestFn(ctx, req.File.incoming(), req.Folder)
			if err != nil {
				return UploadResponse{}, err
			}
			return UploadResponse{URL: obj.URL, Key: obj.Key, Bucket: obj.Bucket, Location: obj.Location}, nil
		})
	}

	r.Register("files.upload", upload(svc.IngestFile))
	r.Register("files.uploadImage", upload(svc.IngestImage))

	r.Register("files.delete", rpc.Handle(func(ctx context.Context, req KeyRequest) (DeleteResponse, error) {
		res := svc.Delete(ctx, req.Key)
		return DeleteResponse{Success: res.Success, Message: res.Message}, nil
	}))

	r.Register("files.getSignedUrl", rpc.Handle(func(ctx context.Context, req SignedURLRequest) (SignedURLResponse, error) {
		signed, err := svc.SignedURL(ctx, req.Key, req.ExpiresIn)
		if err != nil {
			return SignedURLResponse{}, err
		}
		return SignedURLResponse{Success: true, URL: signed.URL, ExpiresIn: signed.ExpiresIn}, nil
	}))

	r.Register("files.exists", rpc.Handle(func(ctx context.Context, req KeyRequest) (ExistsResponse, error) {
		exists, err := svc.Exists(ctx, req.Key)
		if err != nil {
			log.WarnContext(ctx, "existence check failed", logger.StorageKey(req.Key), logger.Error(err))
			return ExistsResponse{Success: false, Exists: false, Key: req.Key}, nil
		}
		return ExistsResponse{Success: true, Exists: exists, Key: req.Key}, nil
	}))

	r.Register("files.bucketInfo", rpc.Handle(func(context.Context, Empty) (BucketInfoResponse, error) {
		info := svc.BucketInfo()
		return BucketInfoResponse{Success: true, Bucket: info.Bucket, Region: info.Region}, nil
	}))

	r.Register("files.health", health("files-service", deps.Now))
}

func (f UploadFile) incoming() ingest.IncomingFile {
	return ingest.IncomingFile{
		Bytes:        f.Buffer,
		MIMEType:     f.MIMEType,
		OriginalName: f.OriginalName,
		DeclaredSize: f.Size,
	}
}

var _ FileService = (*ingest.Service)(nil)

package stream

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Stream is a read-only Reader backed by ranged GetObject requests
// against a single S3 object. It is a reference implementation of a remote
// stream back-end, chosen over an Azure Blob or GCS equivalent since no
// such SDK is available in the dependency corpus.
type S3Stream struct {
	client *s3.Client
	bucket string
	key    string
	size   int64
}

// NewS3Stream opens a stream over bucket/key, using client directly (the
// caller is responsible for loading AWS config, exactly as
// config.LoadDefaultConfig is used to build an s3.Client elsewhere in the
// ecosystem).
func NewS3Stream(ctx context.Context, client *s3.Client, bucket, key string) (*S3Stream, error) {
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("czi: head object %s/%s: %w", bucket, key, err)
	}

	size := int64(0)
	if head.ContentLength != nil {
		size = *head.ContentLength
	}

	return &S3Stream{client: client, bucket: bucket, key: key, size: size}, nil
}

// Size returns the object's content length as observed at open time.
func (s *S3Stream) Size() int64 { return s.size }

// ReadAt satisfies io.ReaderAt via a ranged GetObject request.
func (s *S3Stream) ReadAt(p []byte, offset int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	rangeHeader := fmt.Sprintf("bytes=%d-%d", offset, offset+int64(len(p))-1)

	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		return 0, fmt.Errorf("czi: get object range %s/%s %s: %w", s.bucket, s.key, rangeHeader, err)
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, p)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return n, err
	}

	if int64(offset+int64(n)) >= s.size {
		return n, io.EOF
	}

	return n, nil
}

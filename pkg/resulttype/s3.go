package resulttype

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dispatchkit/dispatchkit/pkg/dispatch"
)

// S3API is the slice of the S3 client used by the S3 result type.
// *s3.Client satisfies it.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 fetches the result's location as an object key from bucket and returns
// the object's bytes. It serves view content (templates, static fragments)
// from object storage the way a file-backed result type would from disk.
//
// Example:
//
//	client := s3.NewFromConfig(awsCfg)
//	r.AddResultType("s3", resulttype.S3(client, "my-views"))
//
// An action result {Name: "ok", Type: "s3", Location: "views/ok.html"}
// then renders the stored object.
func S3(client S3API, bucket string) dispatch.ResultType {
	return func(inv *dispatch.Invocation, res dispatch.Result) (any, error) {
		out, err := client.GetObject(inv.Context(), &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(res.Location),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()
		return io.ReadAll(out.Body)
	}
}

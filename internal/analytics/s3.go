package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"pulsecoach/endurance-app/internal/config"
)

// s3EventSink archives each analytics event as a JSON object in an
// S3-compatible bucket, one object per event.
type s3EventSink struct {
	client     *s3.Client
	bucketName string
}

// NewS3EventSink creates an event sink over an S3-compatible backend.
func NewS3EventSink(cfg config.S3Config) (EventSink, error) {
	// Custom resolver for S3-compatible endpoints (like MinIO, DigitalOcean Spaces)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		// Fallback to default AWS endpoint resolution if no custom endpoint is set
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		log.Printf("ERROR: Failed to load AWS SDK config for S3: %v", err)
		return nil, err
	}

	// Force path-style addressing required by most S3-compatible services
	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	log.Printf("Analytics S3 sink initialized for endpoint: %s, bucket: %s", cfg.Endpoint, cfg.BucketName)

	return &s3EventSink{
		client:     s3Client,
		bucketName: cfg.BucketName,
	}, nil
}

// Publish writes one event object. Failures are logged and swallowed; losing
// an analytics event must never fail the athlete-facing operation.
func (s *s3EventSink) Publish(ctx context.Context, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: Failed to marshal analytics event %s: %v", event.Name, err)
		return
	}

	objectKey := path.Join(
		"events",
		event.AthleteID,
		event.OccurredAt.Format("2006-01-02"),
		event.ID+".json",
	)

	// Bound the write so a slow archive cannot hold the request open.
	putCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = s.client.PutObject(putCtx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		log.Printf("ERROR: Failed to archive analytics event '%s': %v", objectKey, err)
	}
}

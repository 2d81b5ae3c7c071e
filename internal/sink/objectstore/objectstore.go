// Package objectstore ships observation payloads as objects in an S3-like
// bucket, keyed by organization/db/kind/date/hour. Client construction goes
// through internal/cloudaws's lazy Clients holder and cross-account
// AssumeRoleCredentials helper.
package objectstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/ottertune/db-agent/internal/cloudaws"
	"github.com/ottertune/db-agent/internal/sink"
	"github.com/ottertune/db-agent/internal/tools/utils"
)

// The OtterTune-owned observation bucket is reachable only through a fixed
// cross-account role; every other bucket uses the default credential chain.
const (
	ottertuneOwnedBucket = "customer-database-observations"
	crossAccountRoleARN  = "arn:aws:iam::691523222388:role/CrossAccountS3BucketSharingRole"
)

// Config names the values shared across every object written by a Sink.
type Config struct {
	Bucket         string
	OrganizationID string
	DBKey          string
	Region         string
}

// Sink is the S3-like object-store implementation of sink.Sink.
type Sink struct {
	cfg     Config
	client  *s3.Client
	headers map[string]string
	now     func() time.Time
}

// New builds a Sink, choosing the AWS credentials source: a short-lived
// cross-account role when the bucket is OtterTune-owned, otherwise the
// region's default credential chain. headers are the HTTP headers that
// would have accompanied this payload over the HTTPS sink; they are
// embedded in-object instead.
func New(ctx context.Context, cfg Config, awsClient *cloudaws.Client, headers map[string]string) (*Sink, error) {
	client := awsClient.Service().S3

	if cfg.Bucket == ottertuneOwnedBucket {
		sessionName := "db-agent-" + utils.SanitizeRFC1123String(cfg.DBKey)
		creds := awsClient.AssumeRoleCredentials(crossAccountRoleARN, sessionName)
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(creds),
		)
		if err != nil {
			return nil, errors.Wrap(err, "load cross-account aws config")
		}
		client = s3.NewFromConfig(awsCfg)
	}

	return &Sink{cfg: cfg, client: client, headers: headers, now: time.Now}, nil
}

// keyKind maps a sink.Kind to the KIND segment of the object key.
var keyKind = map[sink.Kind]string{
	sink.KindDBLevel:          "DB",
	sink.KindTableLevel:       "TABLE",
	sink.KindLongRunningQuery: "LONG_RUNNING_QUERY",
	sink.KindQuery:            "QUERY",
	sink.KindSchema:           "SCHEMA",
}

// object is the in-object envelope: the payload's would-be HTTP headers
// embedded alongside the body.
type object struct {
	Headers map[string]string `json:"headers"`
	Data    json.RawMessage   `json:"data"`
}

// Ship writes body as one object keyed by
// {organization_id}/{db_key}/{KIND}/{YYYYMMDD}/{HH}/data, gzip-compressing
// it first when the kind requires it. The health heartbeat is never
// shipped through this sink; KindHealth is not in keyKind and Ship rejects
// it.
func (s *Sink) Ship(ctx context.Context, kind sink.Kind, body []byte) error {
	kindSegment, ok := keyKind[kind]
	if !ok {
		return errors.Errorf("objectstore: kind %q has no object-store key", kind)
	}

	env := object{Headers: s.headers, Data: json.RawMessage(body)}
	payload, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal object-store envelope")
	}

	if kind.Gzipped() {
		payload, err = gzipBytes(payload)
		if err != nil {
			return errors.Wrap(err, "gzip payload")
		}
	}

	key := s.objectKey(kindSegment)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return errors.Wrapf(err, "put object %s/%s", s.cfg.Bucket, key)
	}
	return nil
}

func (s *Sink) objectKey(kind string) string {
	now := s.now().UTC()
	return fmt.Sprintf("%s/%s/%s/%s/%s/data",
		s.cfg.OrganizationID, s.cfg.DBKey, kind,
		now.Format("20060102"), now.Format("15"),
	)
}

func gzipBytes(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ sink.Sink = (*Sink)(nil)

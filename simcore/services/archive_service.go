package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/statecraft/ixsim/simcore/database/repositories"
	"github.com/statecraft/ixsim/simcore/ixtime"
)

// ArchiveService uploads windows of historical data points to S3-compatible
// object storage as JSON. It runs on its own cadence and its failures are
// logged only; an archive problem must never touch a recalculation pass.
type ArchiveService struct {
	client    *s3.Client
	bucket    string
	prefix    string
	countries repositories.CountryRepository
	history   repositories.HistoryRepository
	clock     interface{ Now() ixtime.IxTime }
	interval  time.Duration

	lastArchived ixtime.IxTime
}

func NewArchiveService(
	key, secret, region, bucket, prefix string,
	countries repositories.CountryRepository,
	history repositories.HistoryRepository,
	clock interface{ Now() ixtime.IxTime },
	interval time.Duration,
) (*ArchiveService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load archive storage config: %w", err)
	}

	return &ArchiveService{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
		countries: countries,
		history:   history,
		clock:     clock,
		interval:  interval,
	}, nil
}

// Start runs the archive loop until ctx is cancelled.
func (s *ArchiveService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.ArchiveWindow(ctx); err != nil {
					slog.Error("History archive failed",
						slog.String("type", "sys"),
						slog.Any("error", err))
				}
			}
		}
	}()
}

// ArchiveWindow uploads all history recorded since the last archive, one
// object per country, keyed by the window's end instant.
func (s *ArchiveService) ArchiveWindow(ctx context.Context) error {
	now := s.clock.Now()
	if now <= s.lastArchived {
		return nil
	}

	ids, err := s.countries.GetAllIDs(ctx)
	if err != nil {
		return fmt.Errorf("list countries: %w", err)
	}

	var archived int
	for _, id := range ids {
		points, err := s.history.GetRange(ctx, id, float64(s.lastArchived), float64(now))
		if err != nil {
			slog.Error("Failed to read history window",
				slog.String("type", "db"),
				slog.String("country", id),
				slog.Any("error", err))
			continue
		}
		if len(points) == 0 {
			continue
		}

		body, err := json.Marshal(points)
		if err != nil {
			return fmt.Errorf("marshal history for %s: %w", id, err)
		}

		objectKey := fmt.Sprintf("%s/%s/%.4f.json", s.prefix, id, float64(now))
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(objectKey),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
			ACL:         "private",
		})
		if err != nil {
			slog.Error("Failed to upload archive object",
				slog.String("type", "sys"),
				slog.String("key", objectKey),
				slog.Any("error", err))
			continue
		}
		archived++
	}

	s.lastArchived = now
	slog.Info("History window archived",
		slog.String("type", "sys"),
		slog.Int("countries", archived),
		slog.Float64("through_ix", float64(now)))
	return nil
}

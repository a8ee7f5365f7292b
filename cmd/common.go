package cmd

import (
	"context"
	"time"

	"github.com/codearena/judgecore/config"
	"github.com/codearena/judgecore/internal/artifact"
	"github.com/codearena/judgecore/internal/mq"
	"github.com/codearena/judgecore/types"
)

const shutdownTimeout = 15 * time.Second

// rootBootstrapPassword is the initial password for the id=0 root
// account. Operators are expected to change it via /passwd on first use.
const rootBootstrapPassword = "root"

func rootUser(hash []byte) types.User {
	return types.User{
		ID:           types.GlobalContestID, // 0
		Name:         "root",
		PasswordHash: hash,
		Role:         types.RoleAdmin,
	}
}

// newBus constructs the Message Bus Adapter backend selected by
// infra.Broker.
func newBus(ctx context.Context, infra config.Infra) (mq.Backend, error) {
	switch infra.Broker {
	case config.BrokerRabbitMQ:
		return mq.NewRabbitBackend(infra.RabbitMQURL)
	case config.BrokerPubSub:
		return mq.NewPubSubBackend(ctx, infra.PubSubProject)
	default:
		return mq.NewInMemoryBackend(), nil
	}
}

// newArchiver constructs the artifact Archiver selected by
// infra.Bucket, or nil when archiving is disabled.
func newArchiver(ctx context.Context, infra config.Infra) (artifact.Archiver, error) {
	switch infra.Bucket {
	case config.BucketMinio:
		backend, err := artifact.NewMinioBackend(infra.MinioEndpoint, infra.MinioAccessKey, infra.MinioSecretKey, infra.MinioBucketName, infra.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		return artifact.NewObjectArchiver(ctx, backend)
	case config.BucketGCS:
		backend, err := artifact.NewGCSBackend(ctx, infra.GCSProjectID, infra.GCSBucketName)
		if err != nil {
			return nil, err
		}
		return artifact.NewObjectArchiver(ctx, backend)
	default:
		return nil, nil
	}
}

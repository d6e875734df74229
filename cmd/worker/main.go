package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"mdx-backend/internal/bootstrap"
	"mdx-backend/internal/shared/config"
	"mdx-backend/internal/shared/metrics"
	"mdx-backend/internal/shared/storage/db"
	"mdx-backend/internal/shared/telemetry"
	"mdx-backend/internal/workerproc"
)

const (
	defaultVisibilitySeconds  = 300
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()

	queueURL := strings.TrimSpace(cfg.QueueURL)
	if queueURL == "" {
		log.Fatal("MDX_SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("MDX_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("MDX_WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("MDX_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.AWSRegion != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{
		DBOptions: db.DefaultWorkerOptions(),
		RequireDB: true,
	})
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	log.Printf("worker started queue=%s concurrency=%d visibility=%ds", queueURL, concurrency, visibilitySeconds)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncQueueMessagesReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, sqsClient, queueURL, app.Pipeline, m)
			}(msg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight documents", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight documents")
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func handleMessage(ctx context.Context, client sqsAPI, queueURL string, processor workerproc.Processor, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		// Undecodable payloads would loop forever; drop them.
		fields := map[string]any{
			"message_id":  aws.ToString(msg.MessageId),
			"body_len":    meta.BodyLen,
			"body_sha256": meta.BodySHA,
			"error":       err.Error(),
		}
		telemetry.Error("worker.document.unparseable", fields)
		deleteMessage(ctx, client, queueURL, msg, "")
		return
	}

	telemetry.Info("worker.document.received", map[string]any{
		"message_id":  aws.ToString(msg.MessageId),
		"document_id": decoded.DocumentID,
		"request_id":  decoded.RequestID,
	})

	if err := workerproc.HandleMessage(ctx, processor, body); err != nil {
		// Leave the message for redelivery. A document already at failed is
		// terminal, so the retried Process returns nil and the retry deletes.
		telemetry.Error("worker.document.failed", map[string]any{
			"message_id":  aws.ToString(msg.MessageId),
			"document_id": decoded.DocumentID,
			"request_id":  decoded.RequestID,
			"error":       err.Error(),
		})
		return
	}

	deleteMessage(ctx, client, queueURL, msg, decoded.DocumentID)
	telemetry.Info("worker.document.completed", map[string]any{
		"message_id":  aws.ToString(msg.MessageId),
		"document_id": decoded.DocumentID,
		"request_id":  decoded.RequestID,
	})
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, documentID string) {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		telemetry.Error("worker.document.delete_failed", map[string]any{
			"message_id":  aws.ToString(msg.MessageId),
			"document_id": documentID,
			"error":       "missing receipt handle",
		})
		return
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		telemetry.Error("worker.document.delete_failed", map[string]any{
			"message_id":  aws.ToString(msg.MessageId),
			"document_id": documentID,
			"error":       err.Error(),
		})
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}

// Package intake turns collect bucket notifications into Glue job runs.
//
// The handler consumes SQS messages carrying S3 object-created events. Every
// accepted object starts one run of the collect-to-cleanse job and writes one
// record to the job audit table. Folder markers, empty objects and S3 test
// events are skipped. Failures are reported per message so a bad object never
// blocks the rest of a batch.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/claimslakehq/clapp/trigger/internal/tracing"
)

const tracerName = "github.com/claimslakehq/clapp/trigger/internal/intake"

// JobStarter starts Glue job runs. *glue.Client implements it.
type JobStarter interface {
	StartJobRun(ctx context.Context, params *glue.StartJobRunInput, optFns ...func(*glue.Options)) (*glue.StartJobRunOutput, error)
}

// AuditWriter writes job audit records. *dynamodb.Client implements it.
type AuditWriter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// ObjectHeader reads object metadata. *s3.Client implements it.
type ObjectHeader interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Handler starts the ETL for every object landing in the collect bucket.
type Handler struct {
	env     Environment
	logs    *zap.Logger
	tracer  trace.Tracer
	jobs    JobStarter
	audit   AuditWriter
	objects ObjectHeader
}

// New creates a Handler.
func New(env Environment, logs *zap.Logger, jobs JobStarter, audit AuditWriter, objects ObjectHeader) *Handler {
	return &Handler{
		env:     env,
		logs:    logs,
		tracer:  otel.Tracer(tracerName),
		jobs:    jobs,
		audit:   audit,
		objects: objects,
	}
}

// log returns the handler logger with the active span's trace and span ids
// attached, so CloudWatch log lines join up with X-Ray traces.
func (h *Handler) log(ctx context.Context) *zap.Logger {
	return h.logs.With(tracing.SpanFields(ctx)...)
}

// Handle processes one SQS batch and reports failed messages individually.
func (h *Handler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var failures []events.SQSBatchItemFailure
	for _, msg := range event.Records {
		if err := h.handleMessage(ctx, msg); err != nil {
			h.log(ctx).Error("failed to handle intake message",
				zap.String("message_id", msg.MessageId), zap.Error(err))
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: msg.MessageId})
		}
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func (h *Handler) handleMessage(ctx context.Context, msg events.SQSMessage) (err error) {
	ctx, span := h.tracer.Start(ctx, "intake message")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if isTestEvent(msg.Body) {
		h.log(ctx).Info("skipping S3 test event", zap.String("message_id", msg.MessageId))
		return nil
	}

	var notification events.S3Event
	if err := json.Unmarshal([]byte(msg.Body), &notification); err != nil {
		return errors.Wrap(err, "failed to decode S3 notification")
	}

	for i, record := range notification.Records {
		executionID := msg.MessageId
		if len(notification.Records) > 1 {
			executionID = fmt.Sprintf("%s-%d", msg.MessageId, i)
		}
		if err := h.handleObject(ctx, record, executionID); err != nil {
			return err
		}
	}

	return nil
}

func (h *Handler) handleObject(ctx context.Context, record events.S3EventRecord, executionID string) error {
	// S3 notifications URL-encode object keys.
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return errors.Wrapf(err, "failed to decode object key %q", record.S3.Object.Key)
	}

	if record.S3.Bucket.Name != h.env.CollectBucket {
		h.log(ctx).Warn("skipping notification from unexpected bucket",
			zap.String("bucket", record.S3.Bucket.Name), zap.String("object_key", key))
		return nil
	}
	if strings.HasSuffix(key, "/") {
		h.log(ctx).Info("skipping folder marker", zap.String("object_key", key))
		return nil
	}

	empty, err := h.isEmptyObject(ctx, record.S3.Bucket.Name, key)
	if err != nil {
		return err
	}
	if empty {
		h.log(ctx).Info("skipping empty object", zap.String("object_key", key))
		return nil
	}

	base := path.Base(key)
	base = strings.TrimSuffix(base, path.Ext(base))

	started, err := h.jobs.StartJobRun(ctx, &glue.StartJobRunInput{
		JobName: aws.String(h.env.JobName),
		Arguments: map[string]string{
			"--source_key":     key,
			"--execution_id":   executionID,
			"--base_file_name": base,
		},
	})
	if err != nil {
		return errors.Wrapf(err, "failed to start job %s for %s", h.env.JobName, key)
	}

	runID := aws.ToString(started.JobRunId)
	if _, err := h.audit.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(h.env.AuditTable),
		Item: map[string]ddbtypes.AttributeValue{
			"run_id":       &ddbtypes.AttributeValueMemberS{Value: runID},
			"object_key":   &ddbtypes.AttributeValueMemberS{Value: key},
			"execution_id": &ddbtypes.AttributeValueMemberS{Value: executionID},
			"job_name":     &ddbtypes.AttributeValueMemberS{Value: h.env.JobName},
			"started_at":   &ddbtypes.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	}); err != nil {
		return errors.Wrapf(err, "failed to write audit record for run %s", runID)
	}

	h.log(ctx).Info("started job run",
		zap.String("job_name", h.env.JobName),
		zap.String("run_id", runID),
		zap.String("object_key", key),
		zap.String("execution_id", executionID))

	return nil
}

func (h *Handler) isEmptyObject(ctx context.Context, bucket, key string) (bool, error) {
	out, err := h.objects.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to head object %s", key)
	}

	return aws.ToInt64(out.ContentLength) == 0, nil
}

// isTestEvent reports whether the message is the test notification S3 sends
// when a bucket notification configuration is created.
func isTestEvent(body string) bool {
	var probe struct {
		Event string `json:"Event"`
	}
	if err := json.Unmarshal([]byte(body), &probe); err != nil {
		return false
	}

	return probe.Event == "s3:TestEvent"
}

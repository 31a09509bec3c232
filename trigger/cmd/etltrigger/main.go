// Command etltrigger runs the intake trigger Lambda. It consumes collect
// bucket notifications from SQS and starts the collect-to-cleanse Glue job.
package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/claimslakehq/clapp/trigger/internal/intake"
	"github.com/claimslakehq/clapp/trigger/internal/tracing"
)

const initTimeout = 10 * time.Second

func main() {
	fx.New(
		fx.Provide(
			intake.ParseEnv,
			newLogger,
			newTracerProvider,
			newAWSConfig,
			newClients,
			intake.New,
		),
		fx.Invoke(start),
	).Run()
}

func newLogger(env intake.Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.LogLevel)

	logs, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logs.Named(env.ServiceName), nil
}

func newTracerProvider(lc fx.Lifecycle, env intake.Environment) (*sdktrace.TracerProvider, propagation.TextMapPropagator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	tp, prop, err := tracing.New(ctx, env.OtelExporter, env.ServiceName)
	if err != nil {
		return nil, nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp, prop, nil
}

func newAWSConfig(tp *sdktrace.TracerProvider, prop propagation.TextMapPropagator) (aws.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return cfg, err
	}

	otelaws.AppendMiddlewares(&cfg.APIOptions,
		otelaws.WithTracerProvider(tp),
		otelaws.WithTextMapPropagator(prop),
	)

	return cfg, nil
}

func newClients(cfg aws.Config) (intake.JobStarter, intake.AuditWriter, intake.ObjectHeader) {
	return glue.NewFromConfig(cfg), dynamodb.NewFromConfig(cfg), s3.NewFromConfig(cfg)
}

func start(lc fx.Lifecycle, handler *intake.Handler, logs *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logs.Info("starting intake trigger")
			go lambda.StartWithOptions(handler.Handle)
			return nil
		},
	})
}

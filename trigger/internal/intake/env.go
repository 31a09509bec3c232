package intake

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment holds the trigger configuration injected by the CDK stack.
type Environment struct {
	// JobName is the Glue job started for every new collect object.
	JobName string `env:"CL_JOB_NAME,required"`
	// AuditTable receives one record per started job run.
	AuditTable string `env:"CL_AUDIT_TABLE,required"`
	// CollectBucket is the only bucket this trigger accepts notifications from.
	CollectBucket string `env:"CL_COLLECT_BUCKET,required"`
	// ServiceName names the service in logs and traces.
	ServiceName string `env:"CL_SERVICE_NAME" envDefault:"etltrigger"`
	// LogLevel sets the zap level (debug, info, warn, error).
	LogLevel zapcore.Level `env:"CL_LOG_LEVEL" envDefault:"info"`
	// OtelExporter selects the trace exporter: "stdout" or "xrayudp".
	OtelExporter string `env:"CL_OTEL_EXPORTER" envDefault:"stdout"`
}

// ParseEnv parses environment variables into an Environment.
func ParseEnv() (Environment, error) {
	var e Environment
	if err := env.Parse(&e); err != nil {
		return e, errors.Wrap(err, "failed to parse environment")
	}
	return e, nil
}

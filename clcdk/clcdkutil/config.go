package clcdkutil

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrUnknownEnvironment marks errors for environments without a mapping.
	ErrUnknownEnvironment = errors.New("unknown environment")
	// ErrInvalidConfig marks errors for mappings that fail validation after
	// merging.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Defaults applied by Resolve when neither the Deploy mapping nor the
// environment mapping sets a value.
const (
	DefaultGlueVersion     = "4.0"
	DefaultSparkWorkerType = "G.1X"
)

// Mapping holds the raw, partial settings for one environment. The zero
// value of every string field means "unset"; Lineage is a *bool so an
// environment can override an inherited true with false.
type Mapping struct {
	Account         string
	Region          string
	LogicalPrefix   string
	ResourcePrefix  string
	RepositoryOwner string
	Repository      string
	ConnectionARN   string
	Branch          string
	VPCCIDR         string
	Lineage         *bool
	GlueVersion     string
	SparkWorkerType string
}

// Mappings is the full static configuration: the Deploy mapping carries the
// pipeline account and the defaults inherited by every target environment.
type Mappings map[Environment]Mapping

// Config is the resolved, validated configuration for one environment.
// It is passed around by value; construct packages never mutate it.
type Config struct {
	Environment     Environment `validate:"required"`
	Account         string      `validate:"omitempty,len=12,number"`
	Region          string      `validate:"omitempty,known_region"`
	LogicalPrefix   string      `validate:"required,logical_prefix"`
	ResourcePrefix  string      `validate:"required,resource_prefix"`
	RepositoryOwner string      `validate:"required_with=Repository"`
	Repository      string
	ConnectionARN   string `validate:"required_with=Repository,omitempty,connection_arn"`
	Branch          string
	VPCCIDR         string `validate:"omitempty,cidrv4"`
	Lineage         bool
	GlueVersion     string `validate:"required"`
	SparkWorkerType string `validate:"required"`
}

// HasRepository reports whether repository coordinates are configured.
func (c Config) HasRepository() bool {
	return c.Repository != ""
}

// RepositoryFullName returns the "owner/name" form used by source actions.
func (c Config) RepositoryFullName() string {
	return c.RepositoryOwner + "/" + c.Repository
}

// HasVPC reports whether the environment runs Glue jobs inside a VPC.
func (c Config) HasVPC() bool {
	return c.VPCCIDR != ""
}

// Resolve merges the Deploy defaults with the requested environment's
// overrides (the override wins per field), fills in built-in defaults and
// validates the result. It is pure: no context lookups, no environment
// variables, no partial output on failure.
func Resolve(m Mappings, env Environment) (Config, error) {
	mapping, ok := m[env]
	if !ok {
		return Config{}, errors.Mark(
			errors.Newf("no mapping for environment %q, supported environments: %s",
				env, strings.Join(environmentNames(m), ", ")),
			ErrUnknownEnvironment)
	}

	merged := merge(m[Deploy], mapping)
	conf := Config{
		Environment:     env,
		Account:         merged.Account,
		Region:          merged.Region,
		LogicalPrefix:   merged.LogicalPrefix,
		ResourcePrefix:  merged.ResourcePrefix,
		RepositoryOwner: merged.RepositoryOwner,
		Repository:      merged.Repository,
		ConnectionARN:   merged.ConnectionARN,
		Branch:          merged.Branch,
		VPCCIDR:         merged.VPCCIDR,
		Lineage:         merged.Lineage != nil && *merged.Lineage,
		GlueVersion:     merged.GlueVersion,
		SparkWorkerType: merged.SparkWorkerType,
	}

	if conf.Branch == "" {
		conf.Branch = env.DefaultBranch()
	}
	if conf.GlueVersion == "" {
		conf.GlueVersion = DefaultGlueVersion
	}
	if conf.SparkWorkerType == "" {
		conf.SparkWorkerType = DefaultSparkWorkerType
	}

	if err := validateConfig(conf); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// ResolveAll resolves Deploy plus every target environment. The first
// resolution error wins.
func ResolveAll(m Mappings) (map[Environment]Config, error) {
	environments := append([]Environment{Deploy}, TargetEnvironments()...)
	configs := make(map[Environment]Config, len(environments))
	for _, env := range environments {
		conf, err := Resolve(m, env)
		if err != nil {
			return nil, err
		}
		configs[env] = conf
	}
	return configs, nil
}

// merge overlays the override mapping on the base mapping, field by field.
func merge(base, override Mapping) Mapping {
	out := base
	if override.Account != "" {
		out.Account = override.Account
	}
	if override.Region != "" {
		out.Region = override.Region
	}
	if override.LogicalPrefix != "" {
		out.LogicalPrefix = override.LogicalPrefix
	}
	if override.ResourcePrefix != "" {
		out.ResourcePrefix = override.ResourcePrefix
	}
	if override.RepositoryOwner != "" {
		out.RepositoryOwner = override.RepositoryOwner
	}
	if override.Repository != "" {
		out.Repository = override.Repository
	}
	if override.ConnectionARN != "" {
		out.ConnectionARN = override.ConnectionARN
	}
	if override.Branch != "" {
		out.Branch = override.Branch
	}
	if override.VPCCIDR != "" {
		out.VPCCIDR = override.VPCCIDR
	}
	if override.Lineage != nil {
		out.Lineage = override.Lineage
	}
	if override.GlueVersion != "" {
		out.GlueVersion = override.GlueVersion
	}
	if override.SparkWorkerType != "" {
		out.SparkWorkerType = override.SparkWorkerType
	}
	return out
}

func environmentNames(m Mappings) []string {
	names := make([]string, 0, len(m))
	for env := range m {
		names = append(names, string(env))
	}
	sort.Strings(names)
	return names
}

var (
	logicalPrefixPattern  = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
	resourcePrefixPattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)
)

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	rules := map[string]validator.Func{
		"known_region": func(fl validator.FieldLevel) bool {
			return IsKnownRegion(fl.Field().String())
		},
		"logical_prefix": func(fl validator.FieldLevel) bool {
			return logicalPrefixPattern.MatchString(fl.Field().String())
		},
		"resource_prefix": func(fl validator.FieldLevel) bool {
			return resourcePrefixPattern.MatchString(fl.Field().String())
		},
		"connection_arn": func(fl validator.FieldLevel) bool {
			arn := fl.Field().String()
			return strings.HasPrefix(arn, "arn:aws:codestar-connections:") ||
				strings.HasPrefix(arn, "arn:aws:codeconnections:")
		},
	}
	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return validate
}

func validateConfig(conf Config) error {
	err := newValidator().Struct(conf)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrapf(err, "validate %s configuration", conf.Environment)
	}

	msgs := make([]string, 0, len(verrs))
	for _, verr := range verrs {
		msgs = append(msgs, formatValidationError(verr))
	}
	return errors.Mark(
		errors.Newf("invalid %s configuration:\n  - %s",
			conf.Environment, strings.Join(msgs, "\n  - ")),
		ErrInvalidConfig)
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "required_with":
		return e.Field() + " is required when " + e.Param() + " is set"
	case "len", "number":
		return e.Field() + " must be a 12-digit AWS account id"
	case "known_region":
		return e.Field() + " is not a known AWS region"
	case "cidrv4":
		return e.Field() + " must be a valid IPv4 CIDR block"
	case "logical_prefix":
		return e.Field() + " must be alphanumeric and start with an uppercase letter"
	case "resource_prefix":
		return e.Field() + " must be lowercase alphanumeric"
	case "connection_arn":
		return e.Field() + " must be a CodeStar connections ARN"
	default:
		return e.Field() + " failed " + e.Tag() + " validation"
	}
}

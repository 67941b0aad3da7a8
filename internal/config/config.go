// Package config loads neograph settings. Sources apply in increasing
// precedence: built-in defaults, an optional YAML file, NEOGRAPH_ environment
// variables, then command-line flags that were set explicitly.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	bridge "github.com/hanpama/neograph/internal/bridge"
	cypher "github.com/hanpama/neograph/internal/cypher"
	graphdb "github.com/hanpama/neograph/internal/graphdb"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NEOGRAPH_"

// Config is the complete server configuration.
type Config struct {
	Neo4j   Neo4j   `yaml:"neo4j" envPrefix:"NEO4J_"`
	GraphQL GraphQL `yaml:"graphql" envPrefix:"GRAPHQL_"`
	Server  Server  `yaml:"server" envPrefix:"SERVER_"`
	Health  Health  `yaml:"health" envPrefix:"HEALTH_"`
	Log     Log     `yaml:"log" envPrefix:"LOG_"`
	OTel    OTel    `yaml:"otel" envPrefix:"OTEL_"`
}

type Neo4j struct {
	URI                   string        `yaml:"uri" env:"URI"`
	Username              string        `yaml:"username" env:"USERNAME"`
	Password              string        `yaml:"password" env:"PASSWORD"`
	Database              string        `yaml:"database" env:"DATABASE"`
	MaxConnectionPoolSize int           `yaml:"max_connection_pool_size" env:"MAX_CONNECTION_POOL_SIZE"`
	AcquisitionTimeout    time.Duration `yaml:"acquisition_timeout" env:"ACQUISITION_TIMEOUT"`
}

type GraphQL struct {
	SchemaLocation   string   `yaml:"schema_location" env:"SCHEMA_LOCATION"`
	Introspection    bool     `yaml:"introspection" env:"INTROSPECTION"`
	DisableQueries   bool     `yaml:"disable_queries" env:"DISABLE_QUERIES"`
	DisableMutations bool     `yaml:"disable_mutations" env:"DISABLE_MUTATIONS"`
	Exclude          []string `yaml:"exclude" env:"EXCLUDE" envSeparator:","`
}

type Server struct {
	Addr         string        `yaml:"addr" env:"ADDR"`
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	Pretty       bool          `yaml:"pretty" env:"PRETTY"`
	GraphiQL     bool          `yaml:"graphiql" env:"GRAPHIQL"`
	CORSOrigins  []string      `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// Health configures the gRPC health service. An empty Addr disables it.
type Health struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
}

type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// OTel configures tracing. An empty Endpoint disables it.
type OTel struct {
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
	Service  string `yaml:"service" env:"SERVICE"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Neo4j: Neo4j{
			URI:                   "bolt://localhost:7687",
			Username:              "neo4j",
			MaxConnectionPoolSize: 100,
			AcquisitionTimeout:    time.Minute,
		},
		GraphQL: GraphQL{
			SchemaLocation: bridge.DefaultSchemaLocation,
			Introspection:  true,
		},
		Server: Server{
			Addr:         ":8080",
			Timeout:      10 * time.Second,
			MaxBodyBytes: 1 << 20,
			GraphiQL:     true,
		},
		Health: Health{
			Addr:     ":9090",
			Interval: 10 * time.Second,
		},
		Log: Log{Level: "info", Format: "text"},
		OTel: OTel{
			Service: "neograph",
		},
	}
}

// Load registers the -config flag and every setting flag on fs, parses args
// and returns the merged configuration. environ overrides the process
// environment when non-nil. The YAML file comes from -config, or from
// NEOGRAPH_CONFIG when the flag is absent.
func Load(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var file string
	fs.StringVar(&file, "config", "", "YAML configuration file")
	scratch := Default()
	bind(fs, &scratch)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if file == "" {
		if environ != nil {
			file = environ[EnvPrefix+"CONFIG"]
		} else {
			file = os.Getenv(EnvPrefix + "CONFIG")
		}
	}

	cfg := Default()
	if file != "" {
		if err := ReadFile(file, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	// Replay only the flags given on the command line so that flag defaults
	// do not mask file and environment values.
	replay := flag.NewFlagSet(fs.Name(), flag.ContinueOnError)
	bind(replay, &cfg)
	var replayErr error
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" || replayErr != nil {
			return
		}
		if replay.Lookup(f.Name) == nil {
			return
		}
		replayErr = replay.Set(f.Name, f.Value.String())
	})
	if replayErr != nil {
		return Config{}, replayErr
	}
	return cfg, cfg.Validate()
}

// ReadFile decodes the YAML file at path over cfg. Keys missing from the
// file keep their current values.
func ReadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Neo4j.URI == "" {
		errs = append(errs, errors.New("neo4j.uri is required"))
	}
	if c.GraphQL.SchemaLocation == "" {
		errs = append(errs, errors.New("graphql.schema-location is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.Server.Timeout < 0 {
		errs = append(errs, errors.New("server.timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// SchemaConfig returns the augmentation settings.
func (c Config) SchemaConfig() cypher.SchemaConfig {
	return cypher.SchemaConfig{
		Query:    cypher.CRUDConfig{Disabled: c.GraphQL.DisableQueries, Exclude: c.GraphQL.Exclude},
		Mutation: cypher.CRUDConfig{Disabled: c.GraphQL.DisableMutations, Exclude: c.GraphQL.Exclude},
	}
}

// Driver returns the Neo4j connection settings.
func (c Config) Driver() graphdb.Config {
	return graphdb.Config{
		URI:                   c.Neo4j.URI,
		Username:              c.Neo4j.Username,
		Password:              c.Neo4j.Password,
		Database:              c.Neo4j.Database,
		MaxConnectionPoolSize: c.Neo4j.MaxConnectionPoolSize,
		AcquisitionTimeout:    c.Neo4j.AcquisitionTimeout,
	}
}

func bind(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.Neo4j.URI, "neo4j.uri", c.Neo4j.URI, "Neo4j connection URI")
	fs.StringVar(&c.Neo4j.Username, "neo4j.username", c.Neo4j.Username, "Neo4j user")
	fs.StringVar(&c.Neo4j.Password, "neo4j.password", c.Neo4j.Password, "Neo4j password")
	fs.StringVar(&c.Neo4j.Database, "neo4j.database", c.Neo4j.Database, "Neo4j database name")
	fs.IntVar(&c.Neo4j.MaxConnectionPoolSize, "neo4j.max-pool-size", c.Neo4j.MaxConnectionPoolSize, "Max driver connections")
	fs.DurationVar(&c.Neo4j.AcquisitionTimeout, "neo4j.acquisition-timeout", c.Neo4j.AcquisitionTimeout, "Connection acquisition timeout")

	fs.StringVar(&c.GraphQL.SchemaLocation, "graphql.schema-location", c.GraphQL.SchemaLocation, "Schema resource location")
	fs.BoolVar(&c.GraphQL.Introspection, "graphql.introspection", c.GraphQL.Introspection, "Enable GraphQL introspection")
	fs.BoolVar(&c.GraphQL.DisableQueries, "graphql.disable-queries", c.GraphQL.DisableQueries, "Do not generate query fields")
	fs.BoolVar(&c.GraphQL.DisableMutations, "graphql.disable-mutations", c.GraphQL.DisableMutations, "Do not generate mutation fields")
	fs.Var((*listValue)(&c.GraphQL.Exclude), "graphql.exclude", "Comma-separated types without generated fields")

	fs.StringVar(&c.Server.Addr, "server.addr", c.Server.Addr, "HTTP listen address")
	fs.DurationVar(&c.Server.Timeout, "server.timeout", c.Server.Timeout, "Per-request timeout")
	fs.Int64Var(&c.Server.MaxBodyBytes, "server.max-body-bytes", c.Server.MaxBodyBytes, "Max request body size")
	fs.BoolVar(&c.Server.Pretty, "server.pretty", c.Server.Pretty, "Pretty-print JSON responses")
	fs.BoolVar(&c.Server.GraphiQL, "server.graphiql", c.Server.GraphiQL, "Serve GraphiQL on GET")
	fs.Var((*listValue)(&c.Server.CORSOrigins), "server.cors-origins", "Comma-separated allowed CORS origins")

	fs.StringVar(&c.Health.Addr, "health.addr", c.Health.Addr, "gRPC health listen address")
	fs.DurationVar(&c.Health.Interval, "health.interval", c.Health.Interval, "Neo4j connectivity check interval")

	fs.StringVar(&c.Log.Level, "log.level", c.Log.Level, "debug, info, warn or error")
	fs.StringVar(&c.Log.Format, "log.format", c.Log.Format, "text or json")

	fs.StringVar(&c.OTel.Endpoint, "otel.endpoint", c.OTel.Endpoint, "OTLP collector endpoint")
	fs.StringVar(&c.OTel.Service, "otel.service", c.OTel.Service, "OpenTelemetry service name")
}

type listValue []string

func (l *listValue) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *listValue) Set(v string) error {
	*l = nil
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

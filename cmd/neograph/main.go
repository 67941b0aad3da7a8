package main

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	bridge "github.com/hanpama/neograph/internal/bridge"
	config "github.com/hanpama/neograph/internal/config"
	cypher "github.com/hanpama/neograph/internal/cypher"
	eventbus "github.com/hanpama/neograph/internal/eventbus"
	events "github.com/hanpama/neograph/internal/events"
	executor "github.com/hanpama/neograph/internal/executor"
	graphdb "github.com/hanpama/neograph/internal/graphdb"
	health "github.com/hanpama/neograph/internal/health"
	logging "github.com/hanpama/neograph/internal/logging"
	metrics "github.com/hanpama/neograph/internal/metrics"
	otel "github.com/hanpama/neograph/internal/otel"
	resource "github.com/hanpama/neograph/internal/resource"
	schema "github.com/hanpama/neograph/internal/schema"
	server "github.com/hanpama/neograph/internal/server"
)

//go:embed graphql
var classpath embed.FS

const rootUsage = `neograph: GraphQL over Neo4j

USAGE:
  neograph <command> [flags]

COMMANDS:
  serve        Run the HTTP GraphQL server backed by Neo4j
  compile-sdl  Print the augmented schema
  translate    Print the Cypher a GraphQL request would run
  help         Show help for any command

Every setting can also come from a YAML file (-config) or from
NEOGRAPH_<SECTION>_<KEY> environment variables, e.g. NEOGRAPH_NEO4J_URI.
`

const serveUsage = `serve FLAGS:
  -config <file>                      YAML configuration file
  -neo4j.uri <uri>                    Neo4j URI (default: bolt://localhost:7687)
  -neo4j.username <name>              Neo4j user (default: neo4j)
  -neo4j.password <secret>            Neo4j password
  -neo4j.database <name>              Database name (default: server default)
  -neo4j.max-pool-size N              Max driver connections (default: 100)
  -neo4j.acquisition-timeout <dur>    Connection acquisition timeout (default: 1m)
  -graphql.schema-location <loc>      classpath:, file: or http(s) location
                                      (default: classpath:graphql/schema.graphqls)
  -graphql.introspection <bool>       Enable introspection (default: true)
  -graphql.disable-queries            Do not generate query fields
  -graphql.disable-mutations          Do not generate mutation fields
  -graphql.exclude <A,B>              Types without generated fields
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.timeout <duration>          Per-request timeout (default: 10s)
  -server.max-body-bytes N            Max request body size (default: 1048576)
  -server.pretty                      Pretty-print JSON responses
  -server.graphiql <bool>             Serve GraphiQL on GET (default: true)
  -server.cors-origins <a,b>          Allowed CORS origins
  -health.addr <addr>                 gRPC health address; empty disables (default: :9090)
  -health.interval <duration>         Connectivity check interval (default: 10s)
  -log.level <level>                  debug, info, warn or error (default: info)
  -log.format <format>                text or json (default: text)
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: neograph)
`

const compileSDLUsage = `compile-sdl FLAGS:
  -graphql.schema-location <loc>  Schema location (default: classpath:graphql/schema.graphqls)
  -graphql.disable-queries        Do not generate query fields
  -graphql.disable-mutations      Do not generate mutation fields
  -graphql.exclude <A,B>          Types without generated fields
  -out <file>                     Write the schema to file (default: stdout)
`

const translateUsage = `translate FLAGS:
  -query <document>               GraphQL request (required)
  -operation <name>               Operation to run
  -variables <json>               Variables as a JSON object
  -graphql.schema-location <loc>  Schema location (default: classpath:graphql/schema.graphqls)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return errors.New("missing command")
	}
	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "compile-sdl":
		return cmdCompileSDL(cmdArgs, stdout, stderr)
	case "translate":
		return cmdTranslate(cmdArgs, stdout, stderr)
	case "help", "-h", "-help", "--help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "compile-sdl":
		fmt.Fprint(stdout, compileSDLUsage)
	case "translate":
		fmt.Fprint(stdout, translateUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	return fs
}

func loader() resource.Loader { return resource.NewLoader(classpath) }

// offline builds the schema over a driver that answers every statement with
// no records.
func offline(cfg config.Config, opts ...bridge.Option) (*executor.Builder, *graphdb.MockDriver, error) {
	driver := graphdb.NewMockDriver(nil)
	opts = append([]bridge.Option{bridge.WithSchemaConfig(cfg.SchemaConfig())}, opts...)
	b, err := bridge.NewBuilder(driver, bridge.Properties{SchemaLocation: cfg.GraphQL.SchemaLocation}, loader(), nil, opts...)
	return b, driver, err
}

func cmdCompileSDL(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("compile-sdl")
	outFile := fs.String("out", "", "Write the schema to file")
	cfg, err := config.Load(fs, args, nil)
	if err != nil {
		fmt.Fprint(stderr, compileSDLUsage)
		return err
	}
	b, _, err := offline(cfg, bridge.WithIntrospection(false))
	if err != nil {
		return err
	}
	sdl := schema.Render(b.Schema())
	if *outFile == "" {
		_, err := io.WriteString(stdout, sdl)
		return err
	}
	return os.WriteFile(*outFile, []byte(sdl), 0o644)
}

func cmdTranslate(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("translate")
	query := fs.String("query", "", "GraphQL request")
	operation := fs.String("operation", "", "Operation to run")
	variables := fs.String("variables", "", "Variables as a JSON object")
	cfg, err := config.Load(fs, args, nil)
	if err != nil {
		fmt.Fprint(stderr, translateUsage)
		return err
	}
	if *query == "" {
		fmt.Fprint(stderr, translateUsage)
		return errors.New("-query is required")
	}
	var vars map[string]any
	if *variables != "" {
		dec := json.NewDecoder(strings.NewReader(*variables))
		dec.UseNumber()
		if err := dec.Decode(&vars); err != nil {
			return fmt.Errorf("parse variables: %w", err)
		}
	}

	// One root field at a time keeps the printed order stable.
	b, _, err := offline(cfg, bridge.WithWiring(func(w *cypher.Wiring) { w.Concurrency = 1 }))
	if err != nil {
		return err
	}

	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)
	var printErr error
	eventbus.SubscribeTo(bus, func(_ context.Context, e events.CypherStart) {
		if printErr != nil {
			return
		}
		_, printErr = fmt.Fprintf(stdout, "// %s.%s\n%s\n", e.ObjectType, e.Field, e.Query)
		if printErr == nil && len(e.Params) > 0 {
			params, _ := json.Marshal(e.Params)
			_, printErr = fmt.Fprintf(stdout, "// params: %s\n", params)
		}
	})

	res := b.Build().Execute(context.Background(), executor.Request{Query: *query, OperationName: *operation, Variables: vars})
	if len(res.Errors) > 0 {
		msgs := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("translate: %s", strings.Join(msgs, "; "))
	}
	return printErr
}

func cmdServe(args []string, stderr io.Writer) error {
	fs := newFlagSet("serve")
	cfg, err := config.Load(fs, args, nil)
	if err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Bind the health port up front so a bad address fails before anything
	// is started.
	var healthLis net.Listener
	if cfg.Health.Addr != "" {
		healthLis, err = net.Listen("tcp", cfg.Health.Addr)
		if err != nil {
			return fmt.Errorf("health listen: %w", err)
		}
		defer healthLis.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventbus.Use(eventbus.New())
	defer logging.Subscribe(logger)()
	m := metrics.New()
	defer m.Subscribe()()
	shutdown, err := otel.Setup(ctx, cfg.OTel.Endpoint, cfg.OTel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	db, err := graphdb.Open(ctx, cfg.Driver())
	if err != nil {
		return fmt.Errorf("connect neo4j: %w", err)
	}
	defer func() { _ = db.Close(context.Background()) }()

	builder, err := bridge.NewBuilder(db,
		bridge.Properties{SchemaLocation: cfg.GraphQL.SchemaLocation},
		loader(),
		[]executor.Instrumentation{events.Instrumentation{}},
		bridge.WithIntrospection(cfg.GraphQL.Introspection),
		bridge.WithSchemaConfig(cfg.SchemaConfig()),
	)
	if err != nil {
		return err
	}

	sopts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithGraphiQL(cfg.Server.GraphiQL),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	checker := health.New(db, cfg.Health.Interval, logger)

	mux := http.NewServeMux()
	mux.Handle("/graphql", server.New(builder.Build(), sopts...))
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/healthz", checker)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		checker.Run(gctx)
		return nil
	})
	if healthLis != nil {
		g.Go(func() error { return health.Serve(gctx, healthLis, checker) })
		logger.Info("gRPC health service listening", slog.String("addr", cfg.Health.Addr))
	}
	g.Go(func() error {
		logger.Info("GraphQL server listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

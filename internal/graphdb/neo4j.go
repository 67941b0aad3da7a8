package graphdb

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
)

// Config describes how to reach a Neo4j server.
type Config struct {
	URI      string
	Username string
	Password string
	// Database selects the target database; empty means the server default.
	Database string
	// MaxConnectionPoolSize and AcquisitionTimeout tune the driver pool; zero
	// keeps the driver defaults.
	MaxConnectionPoolSize int
	AcquisitionTimeout    time.Duration
}

// Neo4j adapts a neo4j.DriverWithContext to Driver.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ Driver = (*Neo4j)(nil)

// Open creates a driver for cfg and checks that the server is reachable.
func Open(ctx context.Context, cfg Config) (*Neo4j, error) {
	d, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(c *config.Config) {
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		if cfg.AcquisitionTimeout > 0 {
			c.ConnectionAcquisitionTimeout = cfg.AcquisitionTimeout
		}
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	n := &Neo4j{driver: d, database: cfg.Database}
	if err := n.VerifyConnectivity(ctx); err != nil {
		_ = d.Close(ctx)
		return nil, err
	}
	return n, nil
}

// Wrap adapts an existing driver.
func Wrap(d neo4j.DriverWithContext, database string) *Neo4j {
	return &Neo4j{driver: d, database: database}
}

func (n *Neo4j) NewSession(ctx context.Context) Session {
	return &neo4jSession{
		session: n.driver.NewSession(ctx, neo4j.SessionConfig{
			AccessMode:   neo4j.AccessModeWrite,
			DatabaseName: n.database,
		}),
	}
}

// VerifyConnectivity reports whether the server answers.
func (n *Neo4j) VerifyConnectivity(ctx context.Context) error {
	if err := n.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j connectivity: %w", err)
	}
	return nil
}

func (n *Neo4j) Close(ctx context.Context) error { return n.driver.Close(ctx) }

type neo4jSession struct {
	session neo4j.SessionWithContext
}

func (s *neo4jSession) ExecuteWrite(ctx context.Context, work func(Tx) (any, error)) (any, error) {
	return s.session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(neo4jTx{tx: tx})
	})
}

func (s *neo4jSession) Close(ctx context.Context) error { return s.session.Close(ctx) }

type neo4jTx struct {
	tx neo4j.ManagedTransaction
}

func (t neo4jTx) Run(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	result, err := t.tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out, nil
}

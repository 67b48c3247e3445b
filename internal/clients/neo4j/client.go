package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/utils"
)

// Client wraps the Neo4j driver used for graph-side pool queries. The
// graph is a projection of the relational entity store; every read has a
// relational fallback, so a nil client is a legal configuration.
type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger
}

// NewFromEnv builds a client from NEO4J_* variables. Returns (nil, nil)
// when NEO4J_URI is unset.
func NewFromEnv(log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("neo4j: logger required")
	}

	uri := utils.GetEnv("NEO4J_URI", "", log)
	if uri == "" {
		log.Warn("NEO4J_URI not set; pool_bridge will use the relational fallback only")
		return nil, nil
	}

	user := utils.GetEnv("NEO4J_USER", "neo4j", log)
	password := utils.GetEnv("NEO4J_PASSWORD", "", log)
	database := utils.GetEnv("NEO4J_DATABASE", "", log)
	timeoutSec := utils.GetEnvAsInt("NEO4J_TIMEOUT_SECONDS", 10, log)
	maxPool := utils.GetEnvAsInt("NEO4J_MAX_POOL_SIZE", 50, log)

	auth := neo4j.BasicAuth(user, password, "")
	driver, err := neo4j.NewDriverWithContext(uri, auth, func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = maxPool
		cfg.SocketConnectTimeout = time.Duration(timeoutSec) * time.Second
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
	}

	return &Client{
		Driver:   driver,
		Database: database,
		log:      log.With("client", "Neo4j"),
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.Driver.Close(ctx)
	c.Driver = nil
	return err
}

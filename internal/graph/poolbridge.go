package graph

import (
	"context"
	"fmt"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	neo4jclient "github.com/playalore/playalore/internal/clients/neo4j"
	"github.com/playalore/playalore/internal/logger"
)

// BridgeRow is one item tagged in both pools, with the entity values
// that put it there.
type BridgeRow struct {
	ItemID  string
	Name    string
	AValues []string
	BValues []string
}

// PoolBridge runs the graph-side bridge query. The graph mirrors the
// relational entity store as (:Item)-[:TAGGED]->(:Entity {pool, value});
// callers fall back to the relational join when the graph is down.
type PoolBridge struct {
	client *neo4jclient.Client
	log    *logger.Logger
}

func NewPoolBridge(client *neo4jclient.Client, baseLog *logger.Logger) *PoolBridge {
	return &PoolBridge{client: client, log: baseLog.With("service", "PoolBridgeGraph")}
}

// BridgeItems returns items carrying entities in both pools, ordered by
// how many entity values they span.
func (p *PoolBridge) BridgeItems(ctx context.Context, poolA, poolB string, limit int) ([]BridgeRow, error) {
	if p == nil || p.client == nil || p.client.Driver == nil {
		return nil, fmt.Errorf("graph client not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := p.client.Driver.NewSession(ctx, neo4jdriver.SessionConfig{
		AccessMode:   neo4jdriver.AccessModeRead,
		DatabaseName: p.client.Database,
	})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (i:Item)-[:TAGGED]->(a:Entity {pool: $poolA}),
			      (i)-[:TAGGED]->(b:Entity {pool: $poolB})
			WITH i,
			     collect(DISTINCT a.value) AS a_values,
			     collect(DISTINCT b.value) AS b_values
			RETURN i.id AS item_id, i.name AS name, a_values, b_values
			ORDER BY size(a_values) + size(b_values) DESC
			LIMIT $limit`,
			map[string]any{"poolA": poolA, "poolB": poolB, "limit": limit})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("pool bridge graph query: %w", err)
	}

	rows := []BridgeRow{}
	recs, ok := records.([]*neo4jdriver.Record)
	if !ok {
		return rows, nil
	}
	for _, rec := range recs {
		row := BridgeRow{}
		if v, ok := rec.Get("item_id"); ok {
			row.ItemID, _ = v.(string)
		}
		if v, ok := rec.Get("name"); ok {
			row.Name, _ = v.(string)
		}
		if v, ok := rec.Get("a_values"); ok {
			row.AValues = toStrings(v)
		}
		if v, ok := rec.Get("b_values"); ok {
			row.BValues = toStrings(v)
		}
		if row.ItemID != "" {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func toStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

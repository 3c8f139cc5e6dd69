// Package vectorutils constructs vector store drivers by provider name.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	"github.com/chartdexhq/chartdex/pkg/vector"
	"github.com/chartdexhq/chartdex/pkg/vector/chroma"
	"github.com/chartdexhq/chartdex/pkg/vector/pgvector"
	"github.com/chartdexhq/chartdex/pkg/vector/qdrant"
	"github.com/chartdexhq/chartdex/pkg/vector/sqlitevec"
)

type NewDriverOpts struct {
	// ProviderType selects the driver: "sqlitevec", "chroma", "qdrant",
	// or "pgvector".
	ProviderType string

	// TargetURL is the provider endpoint: a database file path for
	// sqlitevec, a server URL for chroma and qdrant, a connection
	// string for pgvector.
	TargetURL string

	// CollectionName is the collection (or table) documents live in.
	CollectionName string

	// Dimensions is the embedding vector size.
	Dimensions uint

	// APIKey authenticates against providers that require one.
	APIKey string

	Logger *slog.Logger
}

// NewDriver constructs the vector store driver named by ProviderType.
func NewDriver(ctx context.Context, o *NewDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlitevec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.TargetURL,
			Dimensions: o.Dimensions,
		}, o.Logger)

	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.CollectionName,
		}, o.Logger)

	case "qdrant":
		host, port, err := splitHostPort(o.TargetURL)
		if err != nil {
			return nil, fmt.Errorf("parsing qdrant url %q: %w", o.TargetURL, err)
		}
		return qdrant.NewDriver(ctx, qdrant.Config{
			Host:           host,
			Port:           port,
			APIKey:         o.APIKey,
			CollectionName: o.CollectionName,
			Dimensions:     uint64(o.Dimensions),
		}, o.Logger)

	case "pgvector":
		return pgvector.NewDriver(ctx, pgvector.Config{
			ConnString: o.TargetURL,
			TableName:  o.CollectionName,
			Dimensions: o.Dimensions,
		}, o.Logger)

	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

// splitHostPort accepts "host", "host:port", or a URL form like
// "http://host:port" and returns the host and port, leaving the port 0
// so the driver can apply its own default.
func splitHostPort(target string) (string, int, error) {
	if target == "" {
		return "", 0, fmt.Errorf("empty address")
	}

	hostport := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		hostport = u.Host
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		// No port given.
		return hostport, 0, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}

	return host, port, nil
}

package report

import (
	"context"
	"fmt"
	"strings"

	consul "github.com/hashicorp/consul/api"
)

// DefaultConsulPrefix is the KV prefix used when ConsulStore.Prefix is empty.
const DefaultConsulPrefix = "mcp-test-harness/reports"

// ConsulStore saves each report as the Consul KV entry <prefix>/<timestamp>.
type ConsulStore struct {
	kv     *consul.KV
	addr   string
	prefix string
}

// NewConsulStore creates a ConsulStore. An empty address means the Consul client default, which
// also honors the CONSUL_HTTP_ADDR environment variable.
func NewConsulStore(address, prefix string) (*ConsulStore, error) {
	config := consul.DefaultConfig()
	if address != "" {
		if scheme, rest, ok := strings.Cut(address, "://"); ok {
			config.Scheme = scheme
			address = rest
		}
		config.Address = address
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, err
	}
	return &ConsulStore{kv: client.KV(), addr: config.Address, prefix: strings.TrimSuffix(prefix, "/")}, nil
}

func (s *ConsulStore) String() string { return "consul " + s.addr }

func (s *ConsulStore) Save(ctx context.Context, r AggregateReport) (string, error) {
	data, err := r.MarshalJSON()
	if err != nil {
		return "", err
	}
	prefix := s.prefix
	if prefix == "" {
		prefix = DefaultConsulPrefix
	}
	key := prefix + "/" + r.Timestamp
	opts := (&consul.WriteOptions{}).WithContext(ctx)
	if _, err := s.kv.Put(&consul.KVPair{Key: key, Value: data}, opts); err != nil {
		return "", fmt.Errorf("consul put failed for %s: %w", key, err)
	}
	return fmt.Sprintf("consul://%s/%s", s.addr, key), nil
}

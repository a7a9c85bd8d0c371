package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/sla-ticket-service/internal/sla"
)

const slaPolicyKey = "sla-tickets:sla-policy"

type redisSLAPolicyRepository struct {
	client *redis.Client
}

// NewSLAPolicyRepository persists the SLA table in Redis so an operator
// change survives restarts. It returns nil when client is nil.
func NewSLAPolicyRepository(client *redis.Client) sla.Persister {
	if client == nil {
		return nil
	}
	return &redisSLAPolicyRepository{client: client}
}

func (r *redisSLAPolicyRepository) Load(ctx context.Context) (sla.Policy, bool, error) {
	raw, err := r.client.Get(ctx, slaPolicyKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var table map[string]int
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, false, fmt.Errorf("decode sla policy: %w", err)
	}
	policy, err := sla.ParsePolicy(table)
	if err != nil {
		return nil, false, err
	}
	return policy, true, nil
}

func (r *redisSLAPolicyRepository) Save(ctx context.Context, policy sla.Policy) error {
	table := make(map[string]int, len(policy))
	for priority, hours := range policy {
		table[string(priority)] = hours
	}
	raw, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, slaPolicyKey, raw, 0).Err()
}

package agent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores agents in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const agentColumns = `id, owner, delegate, max_per_tx, daily_limit, total_limit,
    expires_at, frozen, total_spent, daily_spent, last_day, vault_lamports, created_at`

// Create inserts an agent record.
func (r *PostgresRepository) Create(ctx context.Context, agent Agent) error {
	agentID, err := uuid.Parse(agent.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO agents (`+agentColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		agentID, agent.Owner, agent.Delegate,
		int64(agent.MaxPerTx), int64(agent.DailyLimit), int64(agent.TotalLimit),
		agent.ExpiresAt, agent.Frozen,
		int64(agent.TotalSpent), int64(agent.DailySpent), agent.LastDay,
		int64(agent.VaultLamports), agent.CreatedAt.UTC())
	return err
}

// Get fetches an agent by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Agent, error) {
	agentID, err := uuid.Parse(id)
	if err != nil {
		return Agent{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, agentID)
	return scanAgent(row)
}

// ListByOwner fetches all agents owned by the given public key.
func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string) ([]Agent, error) {
	rows, err := r.db.Query(ctx, `SELECT `+agentColumns+` FROM agents
        WHERE owner = $1 ORDER BY created_at`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// Update rewrites the mutable fields of an agent record.
func (r *PostgresRepository) Update(ctx context.Context, agent Agent) error {
	agentID, err := uuid.Parse(agent.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE agents SET
        max_per_tx = $1, daily_limit = $2, total_limit = $3, expires_at = $4,
        frozen = $5, total_spent = $6, daily_spent = $7, last_day = $8,
        vault_lamports = $9
        WHERE id = $10`,
		int64(agent.MaxPerTx), int64(agent.DailyLimit), int64(agent.TotalLimit), agent.ExpiresAt,
		agent.Frozen, int64(agent.TotalSpent), int64(agent.DailySpent), agent.LastDay,
		int64(agent.VaultLamports), agentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an agent record.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	agentID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM agents WHERE id = $1`, agentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAgent(row pgx.Row) (Agent, error) {
	var (
		a          Agent
		id         uuid.UUID
		maxPerTx   int64
		dailyLimit int64
		totalLimit int64
		totalSpent int64
		dailySpent int64
		vault      int64
		createdAt  time.Time
	)
	if err := row.Scan(&id, &a.Owner, &a.Delegate, &maxPerTx, &dailyLimit, &totalLimit,
		&a.ExpiresAt, &a.Frozen, &totalSpent, &dailySpent, &a.LastDay, &vault, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, err
	}
	a.ID = id.String()
	a.MaxPerTx = uint64(maxPerTx)
	a.DailyLimit = uint64(dailyLimit)
	a.TotalLimit = uint64(totalLimit)
	a.TotalSpent = uint64(totalSpent)
	a.DailySpent = uint64(dailySpent)
	a.VaultLamports = uint64(vault)
	a.CreatedAt = createdAt.UTC()
	return a, nil
}

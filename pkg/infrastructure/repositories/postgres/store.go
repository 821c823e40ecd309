package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
)

//go:embed schema.sql
var schema string

// Store reads owner history, assets and blueprints from PostgreSQL
type Store struct {
	pool   *pgxpool.Pool
	logger logr.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger that reports skipped rows
func WithLogger(logger logr.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Verify interface compliance
var _ repositories.EventRepository = (*Store)(nil)
var _ repositories.InventoryRepository = (*Store)(nil)
var _ repositories.BlueprintRepository = (*Store)(nil)

// Open parses the connection string and creates a connection pool
func Open(ctx context.Context, dbURL string, opts ...Option) (*Store, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database url not set")
	}

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return NewStore(pool, opts...), nil
}

// NewStore wraps an existing pool
func NewStore(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, logger: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the connection pool
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables read by the store if they do not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Transactions returns the owner's wallet transactions in acquisition order.
// Rows with an unparseable price are logged and skipped.
func (s *Store) Transactions(ctx context.Context, owner entities.OwnerID) ([]entities.Transaction, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT type_id, quantity, unit_price::text, is_buy, occurred_at, transaction_id
		FROM wallet_transactions
		WHERE owner_id = $1
		ORDER BY occurred_at NULLS FIRST, transaction_id
	`

	rows, err := s.pool.Query(ctx, query, int64(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []entities.Transaction
	for rows.Next() {
		var (
			tx        entities.Transaction
			item      int64
			quantity  int64
			unitPrice *string
			isBuy     *bool
			at        *time.Time
		)
		if err := rows.Scan(&item, &quantity, &unitPrice, &isBuy, &at, &tx.ReferenceID); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		price, err := nullDecimal(unitPrice)
		if err != nil {
			s.logger.V(logging.DEBUG).Info("skipping malformed transaction",
				"transaction_id", tx.ReferenceID, "error", err.Error())
			continue
		}
		tx.Item = entities.ItemID(item)
		tx.Quantity = entities.Quantity(quantity)
		tx.UnitPrice = price
		tx.IsBuy = isBuy
		tx.Timestamp = at
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return txs, nil
}

// ProductionRecords returns the owner's industry jobs in completion order.
// Jobs with an unknown activity or unparseable cost are logged and skipped.
func (s *Store) ProductionRecords(ctx context.Context, owner entities.OwnerID) ([]entities.ProductionRecord, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT product_type_id, quantity_produced, unit_cost::text, job_cost::text,
			blueprint_id, runs, activity, status, completed_at, job_id
		FROM industry_jobs
		WHERE owner_id = $1
		ORDER BY completed_at NULLS FIRST, job_id
	`

	rows, err := s.pool.Query(ctx, query, int64(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to query industry jobs: %w", err)
	}
	defer rows.Close()

	var records []entities.ProductionRecord
	for rows.Next() {
		var (
			record    entities.ProductionRecord
			item      int64
			quantity  int64
			unitCost  *string
			jobCost   *string
			blueprint int64
			activity  string
		)
		if err := rows.Scan(&item, &quantity, &unitCost, &jobCost, &blueprint, &record.Runs,
			&activity, &record.Status, &record.CompletedAt, &record.ReferenceID); err != nil {
			return nil, fmt.Errorf("failed to scan industry job: %w", err)
		}
		if err := parseJobColumns(&record, unitCost, jobCost, activity); err != nil {
			s.logger.V(logging.DEBUG).Info("skipping malformed industry job",
				"job_id", record.ReferenceID, "error", err.Error())
			continue
		}
		record.ItemProduced = entities.ItemID(item)
		record.QuantityProduced = entities.Quantity(quantity)
		record.RecipeID = entities.RecipeID(blueprint)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read industry jobs: %w", err)
	}
	return records, nil
}

// OnHand returns the summed asset quantity of one item
func (s *Store) OnHand(ctx context.Context, owner entities.OwnerID, item entities.ItemID) (entities.Quantity, error) {
	if s.pool == nil {
		return 0, fmt.Errorf("database pool not configured")
	}

	query := `SELECT COALESCE(SUM(quantity), 0) FROM owner_assets WHERE owner_id = $1 AND type_id = $2`

	var quantity int64
	if err := s.pool.QueryRow(ctx, query, int64(owner), int64(item)).Scan(&quantity); err != nil {
		return 0, fmt.Errorf("failed to query on-hand quantity: %w", err)
	}
	return entities.Quantity(quantity), nil
}

// OnHandAll returns the summed asset quantities of every item the owner holds
func (s *Store) OnHandAll(ctx context.Context, owner entities.OwnerID) (map[entities.ItemID]entities.Quantity, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT type_id, SUM(quantity)
		FROM owner_assets
		WHERE owner_id = $1
		GROUP BY type_id
	`

	rows, err := s.pool.Query(ctx, query, int64(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	onHand := make(map[entities.ItemID]entities.Quantity)
	for rows.Next() {
		var item, quantity int64
		if err := rows.Scan(&item, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		onHand[entities.ItemID(item)] = entities.Quantity(quantity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assets: %w", err)
	}
	return onHand, nil
}

// Blueprints returns the owner's blueprint ownership hints
func (s *Store) Blueprints(ctx context.Context, owner entities.OwnerID) ([]entities.BlueprintOwnership, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT blueprint_id, me_percent, te_percent, is_copy, runs
		FROM owner_blueprints
		WHERE owner_id = $1
		ORDER BY blueprint_id
	`

	rows, err := s.pool.Query(ctx, query, int64(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to query blueprints: %w", err)
	}
	defer rows.Close()

	var blueprints []entities.BlueprintOwnership
	for rows.Next() {
		var (
			bp     entities.BlueprintOwnership
			recipe int64
		)
		if err := rows.Scan(&recipe, &bp.MEPercent, &bp.TEPercent, &bp.IsCopy, &bp.Runs); err != nil {
			return nil, fmt.Errorf("failed to scan blueprint: %w", err)
		}
		bp.RecipeID = entities.RecipeID(recipe)
		blueprints = append(blueprints, bp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read blueprints: %w", err)
	}
	return blueprints, nil
}

// parseJobColumns fills the text columns of an industry job row
func parseJobColumns(record *entities.ProductionRecord, unitCost, jobCost *string, activity string) error {
	var err error
	if record.UnitCost, err = nullDecimal(unitCost); err != nil {
		return fmt.Errorf("unit_cost: %w", err)
	}
	if record.JobCost, err = nullDecimal(jobCost); err != nil {
		return fmt.Errorf("job_cost: %w", err)
	}
	if record.Activity, err = entities.ParseActivity(activity); err != nil {
		return err
	}
	return nil
}

func nullDecimal(raw *string) (decimal.NullDecimal, error) {
	if raw == nil {
		return decimal.NullDecimal{}, nil
	}
	value, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid numeric %q: %w", *raw, err)
	}
	return decimal.NewNullDecimal(value), nil
}

package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	cfg "github.com/coverbridge/salesagent/config"
	agerrors "github.com/coverbridge/salesagent/errors"
	"github.com/coverbridge/salesagent/vector"
)

// Index implements vector.Index using PostgreSQL with the pgvector extension.
// The version swap runs in a single transaction so readers never see a
// half-migrated policy.
type Index struct {
	db        *sql.DB
	dimension int
	tableName string
}

// Config holds pgvector configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Dimension int
	TableName string
}

// DefaultConfig returns default pgvector configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:      "127.0.0.1",
		Port:      5432,
		User:      "postgres",
		DBName:    "salesagent",
		SSLMode:   "disable",
		Dimension: 1536,
		TableName: "policy_chunks",
	}
}

// New creates a pgvector-backed index.
func New(config *Config) (*Index, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := cfg.ValidatePGVectorConfig(config.Host, config.Port, config.User, config.Password,
		config.DBName, config.SSLMode, config.Dimension, config.TableName); err != nil {
		return nil, fmt.Errorf("invalid pgvector configuration: %w", err)
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	idx := &Index{
		db:        db,
		dimension: config.Dimension,
		tableName: config.TableName,
	}

	if err := idx.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to setup pgvector: %w", err)
	}
	return idx, nil
}

func (s *Index) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(255) PRIMARY KEY,
		text TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		ordinal INT NOT NULL DEFAULT 0,
		version INT NOT NULL DEFAULT 1,
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		policy_name VARCHAR(255) NOT NULL,
		policy_type VARCHAR(64),
		company VARCHAR(255),
		coverage_min DOUBLE PRECISION,
		coverage_max DOUBLE PRECISION,
		premium_min DOUBLE PRECISION,
		premium_max DOUBLE PRECISION,
		age_min INT,
		age_max INT,
		source_document VARCHAR(512),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, s.tableName, s.dimension)

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	indexSQL := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s_policy_status_idx ON %s (policy_name, status)",
		s.tableName, s.tableName)
	if _, err := s.db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("failed to create metadata index: %w", err)
	}
	return nil
}

// Add writes records to the index.
func (s *Index) Add(ctx context.Context, recs []*vector.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertTx(ctx, tx, recs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *Index) insertTx(ctx context.Context, tx *sql.Tx, recs []*vector.Record) error {
	query := fmt.Sprintf(`
	INSERT INTO %s (id, text, embedding, ordinal, version, status,
		policy_name, policy_type, company,
		coverage_min, coverage_max, premium_min, premium_max,
		age_min, age_max, source_document)
	VALUES ($1, $2, $3::vector, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (id) DO UPDATE SET
		text = EXCLUDED.text,
		embedding = EXCLUDED.embedding,
		version = EXCLUDED.version,
		status = EXCLUDED.status
	`, s.tableName)

	for _, rec := range recs {
		if rec == nil || rec.ID == "" {
			return fmt.Errorf("record cannot be nil or missing ID")
		}
		if len(rec.Vector) != s.dimension {
			return fmt.Errorf("record %s: expected dimension %d, got %d: %w",
				rec.ID, s.dimension, len(rec.Vector), agerrors.ErrDimensionMismatch)
		}
		status := rec.Status
		if status == "" {
			status = vector.StatusActive
		}
		_, err := tx.ExecContext(ctx, query,
			rec.ID, rec.Text, vectorToString(rec.Vector), rec.Ordinal, rec.Version, string(status),
			rec.Policy.PolicyName, rec.Policy.PolicyType, rec.Policy.Company,
			rec.Policy.CoverageMin, rec.Policy.CoverageMax, rec.Policy.PremiumMin, rec.Policy.PremiumMax,
			rec.Policy.AgeMin, rec.Policy.AgeMax, rec.Policy.Source,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}
	return nil
}

// Search finds records similar to the query vector, restricted by filter.
// The status filter is applied in SQL, not post-filtered.
func (s *Index) Search(ctx context.Context, queryVector []float32, topK int, filter vector.Filter) ([]*vector.Match, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("query vector: expected dimension %d, got %d: %w",
			s.dimension, len(queryVector), agerrors.ErrDimensionMismatch)
	}
	if topK <= 0 {
		topK = 10
	}

	where, args := buildWhere(filter)
	args = append(args, vectorToString(queryVector), topK)
	query := fmt.Sprintf(`
	SELECT id, text, embedding, ordinal, version, status,
		policy_name, COALESCE(policy_type,''), COALESCE(company,''),
		COALESCE(coverage_min,0), COALESCE(coverage_max,0),
		COALESCE(premium_min,0), COALESCE(premium_max,0),
		COALESCE(age_min,0), COALESCE(age_max,0), COALESCE(source_document,''),
		1 - (embedding <=> $%d::vector) AS score
	FROM %s
	%s
	ORDER BY embedding <=> $%d::vector
	LIMIT $%d
	`, len(args)-1, s.tableName, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	defer rows.Close()

	matches := make([]*vector.Match, 0, topK)
	for rows.Next() {
		rec, score, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, &vector.Match{Record: rec, Score: score})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return matches, nil
}

// SwapVersion atomically deprecates the policy's active records and writes
// the new version's records as active, in one transaction.
func (s *Index) SwapVersion(ctx context.Context, policyName string, version int, recs []*vector.Record) error {
	if policyName == "" {
		return fmt.Errorf("policy name cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deprecate := fmt.Sprintf(
		"UPDATE %s SET status = $1 WHERE policy_name = $2 AND status = $3", s.tableName)
	if _, err := tx.ExecContext(ctx, deprecate,
		string(vector.StatusDeprecated), policyName, string(vector.StatusActive)); err != nil {
		return fmt.Errorf("failed to deprecate prior version: %w", err)
	}

	for _, rec := range recs {
		rec.Status = vector.StatusActive
		rec.Version = version
	}
	if err := s.insertTx(ctx, tx, recs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit version swap: %w", err)
	}
	return nil
}

// DeprecatePolicy marks all active records for the policy as deprecated.
func (s *Index) DeprecatePolicy(ctx context.Context, policyName string) error {
	query := fmt.Sprintf(
		"UPDATE %s SET status = $1 WHERE policy_name = $2 AND status = $3", s.tableName)
	if _, err := s.db.ExecContext(ctx, query,
		string(vector.StatusDeprecated), policyName, string(vector.StatusActive)); err != nil {
		return fmt.Errorf("failed to deprecate policy %s: %w", policyName, err)
	}
	return nil
}

// MaxVersion returns the highest version recorded for the policy.
func (s *Index) MaxVersion(ctx context.Context, policyName string) (int, error) {
	var version sql.NullInt64
	query := fmt.Sprintf("SELECT MAX(version) FROM %s WHERE policy_name = $1", s.tableName)
	if err := s.db.QueryRowContext(ctx, query, policyName).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to query max version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// Get retrieves a record by ID regardless of status.
func (s *Index) Get(ctx context.Context, id string) (*vector.Record, error) {
	query := fmt.Sprintf(`
	SELECT id, text, embedding, ordinal, version, status,
		policy_name, COALESCE(policy_type,''), COALESCE(company,''),
		COALESCE(coverage_min,0), COALESCE(coverage_max,0),
		COALESCE(premium_min,0), COALESCE(premium_max,0),
		COALESCE(age_min,0), COALESCE(age_max,0), COALESCE(source_document,''),
		0 AS score
	FROM %s WHERE id = $1
	`, s.tableName)

	row := s.db.QueryRowContext(ctx, query, id)
	rec, _, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", id, agerrors.ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

// Count returns the number of records matching the filter.
func (s *Index) Count(ctx context.Context, filter vector.Filter) (int, error) {
	where, args := buildWhere(filter)
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", s.tableName, where)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Dimension returns the configured embedding dimension.
func (s *Index) Dimension() int {
	return s.dimension
}

// Clear removes all records.
func (s *Index) Clear(ctx context.Context) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s", s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Index) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*vector.Record, float32, error) {
	var (
		rec       vector.Record
		status    string
		vectorStr string
		score     float64
	)
	err := row.Scan(
		&rec.ID, &rec.Text, &vectorStr, &rec.Ordinal, &rec.Version, &status,
		&rec.Policy.PolicyName, &rec.Policy.PolicyType, &rec.Policy.Company,
		&rec.Policy.CoverageMin, &rec.Policy.CoverageMax,
		&rec.Policy.PremiumMin, &rec.Policy.PremiumMax,
		&rec.Policy.AgeMin, &rec.Policy.AgeMax, &rec.Policy.Source,
		&score,
	)
	if err != nil {
		return nil, 0, err
	}
	rec.Status = vector.Status(status)
	vec, err := stringToVector(vectorStr)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse vector for record %s: %w", rec.ID, err)
	}
	rec.Vector = vec
	return &rec, float32(score), nil
}

func buildWhere(filter vector.Filter) (string, []any) {
	var clauses []string
	var args []any
	add := func(column string, value string) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
	}
	if filter.PolicyName != "" {
		add("policy_name", filter.PolicyName)
	}
	if filter.PolicyType != "" {
		add("policy_type", filter.PolicyType)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func vectorToString(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = fmt.Sprintf("%f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func stringToVector(str string) ([]float32, error) {
	str = strings.TrimPrefix(str, "[")
	str = strings.TrimSuffix(str, "]")
	parts := strings.Split(str, ",")

	vec := make([]float32, 0, len(parts))
	for i, part := range parts {
		var v float32
		n, err := fmt.Sscanf(strings.TrimSpace(part), "%f", &v)
		if err != nil || n != 1 {
			return nil, fmt.Errorf("failed to parse vector component at index %d: %q", i, part)
		}
		vec = append(vec, v)
	}
	return vec, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/Joseph14078/JoAuth/config"
	"github.com/Joseph14078/JoAuth/internal/interfaces"
	"github.com/Joseph14078/JoAuth/pkg/databases"
	"github.com/Joseph14078/JoAuth/pkg/helper"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle connections to the database.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 30 * time.Second

	// OrKey groups alternatives in a filter, mirroring MongoDB's $or.
	OrKey = "$or"
)

// PostgresDatabaseClient implements the DBClient interface for PostgreSQL databases.
// Filters, documents and updates are map[string]interface{} keyed by column.
type PostgresDatabaseClient struct {
	db              *sql.DB
	MaxOpenConns    int           // MaxOpenConns is the maximum number of open connections to the database
	MaxIdleConns    int           // MaxIdleConns is the maximum number of idle connections to the database
	ConnMaxLifetime time.Duration // ConnMaxLifetime is the maximum amount of time a connection may be reused
	validTables     map[string]bool
	validColumns    map[string]bool
	logger          interfaces.Logger
}

// NewPostgresDatabaseClient builds a client from the configuration. Zero pool
// settings fall back to the package defaults.
func NewPostgresDatabaseClient(cfg *config.PostgresConfig, logger interfaces.Logger) interfaces.DBClient {
	p := &PostgresDatabaseClient{
		MaxOpenConns:    cfg.Options.MaxOpenConns,
		MaxIdleConns:    cfg.Options.MaxIdleConns,
		ConnMaxLifetime: cfg.Options.ConnMaxLifetime,
		validTables:     helper.ListToMap(cfg.ValidTables),
		validColumns:    helper.ListToMap(cfg.ValidFields),
		logger:          logger,
	}
	if p.MaxOpenConns == 0 {
		p.MaxOpenConns = DefaultMaxOpenConns
	}
	if p.MaxIdleConns == 0 {
		p.MaxIdleConns = DefaultMaxIdleConns
	}
	if p.ConnMaxLifetime == 0 {
		p.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	return p
}

// Connect establishes a connection to a PostgreSQL database.
func (p *PostgresDatabaseClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("PostgresDatabaseClient: DSN is empty")
	}

	var err error
	p.db, err = sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	p.db.SetMaxOpenConns(p.MaxOpenConns)
	p.db.SetMaxIdleConns(p.MaxIdleConns)
	p.db.SetConnMaxLifetime(p.ConnMaxLifetime)

	p.logger.Info("Connecting to PostgreSQL")
	return p.Ping(ctx)
}

// Disconnect closes the PostgreSQL database connection.
func (p *PostgresDatabaseClient) Disconnect(ctx context.Context) error {
	if p.db != nil {
		p.logger.Info("Disconnecting from PostgreSQL")
		return p.db.Close()
	}
	return nil
}

// InsertOne inserts a single row and returns its id. A UUID is generated for
// 'id' when the document has none.
func (p *PostgresDatabaseClient) InsertOne(ctx context.Context, tableName string, document interfaces.Document) (interface{}, error) {
	if err := p.checkTable(tableName); err != nil {
		return nil, err
	}
	docMap, ok := document.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("PostgreSQL InsertOne expects document to be map[string]interface{}")
	}

	row := make(map[string]interface{}, len(docMap)+1)
	for col, val := range docMap {
		row[col] = val
	}
	if _, exists := row["id"]; !exists {
		row["id"] = uuid.New().String()
	}

	columns := sortedKeys(row)
	placeholders := make([]string, 0, len(columns))
	values := make([]interface{}, 0, len(columns))
	for i, col := range columns {
		if err := p.checkColumn(col); err != nil {
			return nil, err
		}
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		values = append(values, row[col])
	}

	// Table and column names are allow-listed above.
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	) // #nosec G201

	p.logger.Debug("Inserting one", "table", tableName)
	var insertedID interface{}
	if err := p.db.QueryRowContext(ctx, query, values...).Scan(&insertedID); err != nil {
		return nil, err
	}
	if b, ok := insertedID.([]byte); ok {
		insertedID = string(b)
	}
	return insertedID, nil
}

// FindOne retrieves a single row matching filter and scans it into result,
// which must be a pointer to a struct whose fields carry `db` tags. Only the
// projected columns are selected when projection is not empty; 'projection'
// names are matched against the `mapstructure` tag (the schema field name) or
// the `db` tag.
func (p *PostgresDatabaseClient) FindOne(ctx context.Context, tableName string, filter interfaces.Document, projection []string, result interfaces.Document) error {
	if err := p.checkTable(tableName); err != nil {
		return err
	}
	filterMap, ok := filter.(map[string]interface{})
	if !ok {
		return fmt.Errorf("PostgreSQL FindOne expects filter to be map[string]interface{}")
	}
	if len(filterMap) == 0 {
		return fmt.Errorf("PostgreSQL FindOne requires a non-empty filter")
	}

	whereString, whereValues, err := p.buildWhere(filterMap, 1)
	if err != nil {
		return err
	}

	columns, fieldPointers, err := scanTargets(result, projection)
	if err != nil {
		return err
	}

	// Table and column names are allow-listed or come from struct tags.
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
		strings.Join(columns, ", "),
		tableName,
		whereString,
	) // #nosec G201

	p.logger.Debug("Finding one", "table", tableName)
	err = p.db.QueryRowContext(ctx, query, whereValues...).Scan(fieldPointers...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("PostgresDatabaseClient: %w in %s", databases.ErrNotFound, tableName)
	}
	return err
}

// UpdateOne updates the rows matching filter and returns how many matched.
func (p *PostgresDatabaseClient) UpdateOne(ctx context.Context, tableName string, filter interfaces.Document, update interfaces.Document) (int64, error) {
	if err := p.checkTable(tableName); err != nil {
		return 0, err
	}
	filterMap, ok := filter.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("PostgreSQL UpdateOne expects filter to be map[string]interface{}")
	}
	updateMap, ok := update.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("PostgreSQL UpdateOne expects update to be map[string]interface{}")
	}
	if len(updateMap) == 0 || len(filterMap) == 0 {
		return 0, fmt.Errorf("PostgreSQL UpdateOne requires a non-empty filter and update")
	}

	setClauses := make([]string, 0, len(updateMap))
	values := make([]interface{}, 0, len(updateMap)+len(filterMap))
	paramCount := 1
	for _, col := range sortedKeys(updateMap) {
		if err := p.checkColumn(col); err != nil {
			return 0, err
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, paramCount))
		values = append(values, updateMap[col])
		paramCount++
	}

	whereString, whereValues, err := p.buildWhere(filterMap, paramCount)
	if err != nil {
		return 0, err
	}
	values = append(values, whereValues...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		tableName,
		strings.Join(setClauses, ", "),
		whereString,
	) // #nosec G201

	p.logger.Debug("Updating one", "table", tableName)
	res, err := p.db.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteOne deletes the rows matching filter.
func (p *PostgresDatabaseClient) DeleteOne(ctx context.Context, tableName string, filter interfaces.Document) (int64, error) {
	if err := p.checkTable(tableName); err != nil {
		return 0, err
	}
	filterMap, ok := filter.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("PostgreSQL DeleteOne expects filter to be map[string]interface{}")
	}
	if len(filterMap) == 0 {
		return 0, fmt.Errorf("PostgreSQL DeleteOne requires a non-empty filter")
	}

	whereString, whereValues, err := p.buildWhere(filterMap, 1)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", tableName, whereString) // #nosec G201

	p.logger.Debug("Deleting one", "table", tableName)
	res, err := p.db.ExecContext(ctx, query, whereValues...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Ping checks the health of the PostgreSQL connection.
func (p *PostgresDatabaseClient) Ping(ctx context.Context) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	return p.db.PingContext(ctx)
}

// EnsureSchema executes the given DDL, a string or a list of strings.
func (p *PostgresDatabaseClient) EnsureSchema(ctx context.Context, tableName string, schema interfaces.Document) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}

	var statements []string
	switch s := schema.(type) {
	case string:
		statements = []string{s}
	case []string:
		statements = s
	default:
		return fmt.Errorf("EnsureSchema expects DDL statements for PostgreSQL, got %T", schema)
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema for %s: %w", tableName, err)
		}
	}
	p.logger.Info("Schema ensured", "table", tableName)
	return nil
}

// buildWhere turns an equality filter into a WHERE clause, numbering
// placeholders from start. The OrKey entry holds a list of alternative
// filters that are OR-ed together.
func (p *PostgresDatabaseClient) buildWhere(filter map[string]interface{}, start int) (string, []interface{}, error) {
	clauses := make([]string, 0, len(filter))
	values := make([]interface{}, 0, len(filter))
	param := start

	for _, col := range sortedKeys(filter) {
		val := filter[col]
		if col == OrKey {
			alternatives, ok := val.([]map[string]interface{})
			if !ok || len(alternatives) == 0 {
				return "", nil, fmt.Errorf("PostgreSQL filter %s expects a non-empty []map[string]interface{}", OrKey)
			}
			ors := make([]string, 0, len(alternatives))
			for _, alt := range alternatives {
				clause, altValues, err := p.buildWhere(alt, param)
				if err != nil {
					return "", nil, err
				}
				ors = append(ors, "("+clause+")")
				values = append(values, altValues...)
				param += len(altValues)
			}
			clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
			continue
		}

		if err := p.checkColumn(col); err != nil {
			return "", nil, err
		}
		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, param))
		values = append(values, val)
		param++
	}

	if len(clauses) == 0 {
		return "", nil, fmt.Errorf("PostgreSQL filter is empty")
	}
	return strings.Join(clauses, " AND "), values, nil
}

func (p *PostgresDatabaseClient) checkTable(tableName string) error {
	if tableName == "" {
		return fmt.Errorf("PostgresDatabaseClient: Table name cannot be empty")
	}
	if !p.validTables[tableName] {
		return fmt.Errorf("PostgresDatabaseClient: Invalid table name: %s", tableName)
	}
	return nil
}

func (p *PostgresDatabaseClient) checkColumn(column string) error {
	if column != "id" && !p.validColumns[column] {
		return fmt.Errorf("PostgresDatabaseClient: Invalid column name: %s", column)
	}
	return nil
}

// scanTargets returns the selected columns and the matching field pointers of
// result. The id column is always selected.
func scanTargets(result interfaces.Document, projection []string) ([]string, []interface{}, error) {
	resultValue := reflect.ValueOf(result)
	if resultValue.Kind() != reflect.Ptr || resultValue.Elem().Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("result must be a pointer to a struct")
	}
	elem := resultValue.Elem()
	wanted := helper.ListToMap(projection)

	var columns []string
	var pointers []interface{}
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Type().Field(i)
		column := field.Tag.Get("db")
		if column == "" || column == "-" {
			continue
		}
		name := field.Tag.Get("mapstructure")
		if len(wanted) > 0 && column != "id" && !wanted[column] && !wanted[name] {
			continue
		}
		columns = append(columns, column)
		pointers = append(pointers, elem.Field(i).Addr().Interface())
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("result has no db tagged fields")
	}
	return columns, pointers, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

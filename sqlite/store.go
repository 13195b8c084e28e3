package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asaidimu/go-sieve/core/expr"
	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/asaidimu/go-sieve/core/sorting"
)

// ErrUnfilteredDelete is returned by Delete when the filter has no condition.
var ErrUnfilteredDelete = errors.New("delete requires a filter with at least one condition")

// ValidationError reports documents rejected by the schema validator.
type ValidationError struct {
	Issues []schema.Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Message
	}
	return "document does not conform to the schema: " + strings.Join(msgs, "; ")
}

// Store runs compiled filters and sorts against one SQLite table of
// documents. It is safe for concurrent use.
type Store struct {
	db         *sql.DB
	schema     *schema.SchemaDefinition
	descriptor *schema.Descriptor
	generator  *Generator
	validator  *schema.Validator
	bus        *events.TypedEventBus[Event]
	logger     *zap.Logger

	filterConfig *filter.Configuration
	sortConfig   *sorting.Configuration

	subMu         sync.Mutex
	subscriptions map[string]func()
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFilterConfiguration injects the configuration used to compile filters
// that carry none of their own.
func WithFilterConfiguration(cfg *filter.Configuration) Option {
	return func(s *Store) { s.filterConfig = cfg }
}

// WithSortConfiguration injects the configuration used to compile sorts that
// carry none of their own.
func WithSortConfiguration(cfg *sorting.Configuration) Option {
	return func(s *Store) { s.sortConfig = cfg }
}

// NewStore creates a store for documents of def in db. db must have been
// opened with DriverName.
func NewStore(db *sql.DB, def *schema.SchemaDefinition, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle cannot be nil")
	}
	generator, err := NewGenerator(def)
	if err != nil {
		return nil, err
	}
	validator := schema.NewValidator(def)
	if ok, issues := validator.ValidateDefinition(); !ok {
		return nil, &ValidationError{Issues: issues}
	}
	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}

	s := &Store{
		db:            db,
		schema:        def,
		descriptor:    schema.DescribeSchema(def),
		generator:     generator,
		validator:     validator,
		bus:           bus,
		logger:        zap.NewNop(),
		subscriptions: map[string]func(){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Descriptor describes the stored documents. Filters and sorts passed to the
// store must be built against it.
func (s *Store) Descriptor() *schema.Descriptor {
	return s.descriptor
}

// ShortCircuitsNullNavigation reports true: json_extract over a NULL column
// yields NULL instead of failing.
func (s *Store) ShortCircuitsNullNavigation() bool {
	return true
}

// Subscribe registers handler for events of the given type and returns a
// subscription id for Unsubscribe. Handlers may run asynchronously.
func (s *Store) Subscribe(event EventType, handler EventHandler) string {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	unsubscribe := s.bus.Subscribe(string(event), handler)
	id := uuid.New().String()
	s.subscriptions[id] = unsubscribe
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (s *Store) Unsubscribe(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if unsubscribe, ok := s.subscriptions[id]; ok {
		unsubscribe()
		delete(s.subscriptions, id)
	}
}

// CreateTable creates the document table if it does not exist.
func (s *Store) CreateTable(ctx context.Context) error {
	stmt, err := CreateTableSQL(s.schema)
	if err != nil {
		return fmt.Errorf("failed to generate SQL for table %s: %w", s.schema.Name, err)
	}
	s.logger.Debug("Creating table", zap.String("sql", stmt))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute SQL statement '%s': %w", stmt, err)
	}
	return nil
}

// Insert validates and stores documents in a single statement.
func (s *Store) Insert(ctx context.Context, docs ...schema.Document) (int64, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	for _, doc := range docs {
		if ok, issues := s.validator.Validate(doc, false); !ok {
			return 0, &ValidationError{Issues: issues}
		}
	}
	stmt, params, err := s.generator.InsertSQL(docs)
	if err != nil {
		return 0, fmt.Errorf("failed to generate INSERT SQL: %w", err)
	}

	return s.withEventEmission(ctx, "insert", InsertStart, InsertSuccess, InsertFailed, stmt, params, nil, nil,
		func() (int64, error) {
			result, err := s.db.ExecContext(ctx, stmt, params...)
			if err != nil {
				s.logger.Error("Failed to execute INSERT query", zap.Error(err), zap.String("sql", stmt))
				return 0, fmt.Errorf("failed to execute INSERT query: %w", err)
			}
			return result.RowsAffected()
		})
}

// Find returns the documents matching f in the order given by srt. Either
// may be nil.
func (s *Store) Find(ctx context.Context, f *filter.Filter, srt *sorting.Sort) ([]schema.Document, error) {
	stmt, params, err := s.Explain(f, srt)
	if err != nil {
		return nil, err
	}

	var docs []schema.Document
	_, err = s.withEventEmission(ctx, "query", QueryStart, QuerySuccess, QueryFailed, stmt, params, f, srt,
		func() (int64, error) {
			s.logger.Debug("Executing SQL SELECT", zap.String("sql", stmt), zap.Any("params", params))
			rows, err := s.db.QueryContext(ctx, stmt, params...)
			if err != nil {
				s.logger.Error("Failed to execute SELECT query", zap.Error(err), zap.String("sql", stmt))
				return 0, fmt.Errorf("failed to execute SELECT query: %w", err)
			}
			defer rows.Close()
			docs, err = readRows(s.logger, s.schema, rows)
			return int64(len(docs)), err
		})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Delete removes the documents matching f and returns how many were removed.
// A filter that compiles to no predicate is rejected, so Delete never empties
// the table.
func (s *Store) Delete(ctx context.Context, f *filter.Filter) (int64, error) {
	if f == nil {
		return 0, ErrUnfilteredDelete
	}
	pred, err := s.compileFilter(f)
	if err != nil {
		return 0, err
	}
	if pred == nil {
		return 0, ErrUnfilteredDelete
	}
	stmt, params, err := s.generator.DeleteSQL(pred, false)
	if err != nil {
		return 0, fmt.Errorf("failed to generate DELETE SQL: %w", err)
	}

	return s.withEventEmission(ctx, "delete", DeleteStart, DeleteSuccess, DeleteFailed, stmt, params, f, nil,
		func() (int64, error) {
			s.logger.Debug("Executing SQL DELETE", zap.String("sql", stmt), zap.Any("params", params))
			result, err := s.db.ExecContext(ctx, stmt, params...)
			if err != nil {
				s.logger.Error("Failed to execute DELETE query", zap.Error(err), zap.String("sql", stmt))
				return 0, fmt.Errorf("failed to execute DELETE query: %w", err)
			}
			return result.RowsAffected()
		})
}

// Explain returns the SELECT statement and parameters Find would run.
func (s *Store) Explain(f *filter.Filter, srt *sorting.Sort) (string, []any, error) {
	var pred expr.Predicate
	if f != nil {
		var err error
		if pred, err = s.compileFilter(f); err != nil {
			return "", nil, err
		}
	}
	var ordering expr.Ordering
	if srt != nil {
		var err error
		if ordering, err = srt.CompileWith(s.sortConfig, s); err != nil {
			return "", nil, fmt.Errorf("compiling sort: %w", err)
		}
	}
	stmt, params, err := s.generator.SelectSQL(pred, ordering)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate SQL query: %w", err)
	}
	return stmt, params, nil
}

func (s *Store) compileFilter(f *filter.Filter) (expr.Predicate, error) {
	pred, err := f.CompileWith(s.filterConfig)
	if err != nil {
		return nil, fmt.Errorf("compiling filter: %w", err)
	}
	return pred, nil
}

func (s *Store) emitEvent(event Event) {
	if s.bus != nil {
		s.bus.Emit(string(event.Type), event)
	}
}

// withEventEmission wraps an operation with start, success, and failure events
func (s *Store) withEventEmission(
	ctx context.Context,
	operation string,
	startEventType, successEventType, failedEventType EventType,
	stmt string,
	params []any,
	f *filter.Filter,
	srt *sorting.Sort,
	fn func() (int64, error),
) (int64, error) {
	startTime := time.Now()
	decorate := func(e Event) Event {
		e.SQL = stmt
		e.Params = params
		if f != nil {
			e.Filter = f.String()
		}
		if srt != nil {
			e.Sort = srt.String()
		}
		return e
	}

	s.emitEvent(decorate(newEvent(startEventType, operation, s.schema.Name, startTime)))

	if err := ctx.Err(); err != nil {
		return 0, s.fail(decorate(newEvent(failedEventType, operation, s.schema.Name, startTime)), err)
	}
	count, err := fn()
	if err != nil {
		return 0, s.fail(decorate(newEvent(failedEventType, operation, s.schema.Name, startTime)), err)
	}

	success := decorate(newEvent(successEventType, operation, s.schema.Name, startTime))
	success.Count = count
	s.emitEvent(success)
	return count, nil
}

func (s *Store) fail(event Event, err error) error {
	errStr := err.Error()
	event.Error = &errStr
	s.emitEvent(event)
	return err
}

// readRows reads all rows from a *sql.Rows object and converts them into a slice
// of schema.Document maps. It also handles type conversions for different field types.
func readRows(logger *zap.Logger, sc *schema.SchemaDefinition, rows *sql.Rows) ([]schema.Document, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var results []schema.Document
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(schema.Document, len(columns))
		for i, col := range columns {
			val := values[i]
			if val == nil {
				continue
			}
			fieldDef, ok := sc.Fields[col]
			if !ok {
				logger.Warn("Column not found in schema, using raw value", zap.String("column", col))
				row[col] = val
				continue
			}
			row[col] = readValue(logger, fieldDef.Type, val)
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return results, nil
}

func readValue(logger *zap.Logger, fieldType schema.FieldType, val any) any {
	if b, ok := val.([]byte); ok {
		val = string(b)
	}
	switch fieldType {
	case schema.FieldTypeBoolean:
		if intVal, isInt := val.(int64); isInt {
			return intVal != 0
		}
	case schema.FieldTypeInteger:
		if floatVal, isFloat := val.(float64); isFloat {
			return int64(floatVal)
		}
	case schema.FieldTypeNumber, schema.FieldTypeDecimal:
		if intVal, isInt := val.(int64); isInt {
			return float64(intVal)
		}
	case schema.FieldTypeDateTime:
		if str, isString := val.(string); isString {
			t, err := time.Parse(time.RFC3339Nano, str)
			if err != nil {
				logger.Warn("Stored datetime is not RFC 3339", zap.String("value", str), zap.Error(err))
				return str
			}
			return t
		}
	case schema.FieldTypeObject, schema.FieldTypeArray, schema.FieldTypeSet, schema.FieldTypeRecord:
		if str, isString := val.(string); isString {
			var decoded any
			if err := json.Unmarshal([]byte(str), &decoded); err == nil {
				return decoded
			}
		}
	}
	return val
}

package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/asaidimu/go-sieve/core/expr"
	"github.com/asaidimu/go-sieve/core/schema"
)

// timeLayout stores datetimes as fixed-width UTC text so that text order is
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Generator is a schema-aware SQL generator for SQLite. It lowers compiled
// predicates and orderings over documents of one schema, stored one column
// per top-level field with nested objects and arrays as JSON text.
type Generator struct {
	schema *schema.SchemaDefinition
}

// NewGenerator creates a generator for documents of def.
func NewGenerator(def *schema.SchemaDefinition) (*Generator, error) {
	if def == nil {
		return nil, fmt.Errorf("SchemaDefinition cannot be nil")
	}
	if def.Name == "" {
		return nil, fmt.Errorf("schema must define a table name")
	}
	return &Generator{schema: def}, nil
}

// quoteIdentifier properly quotes an identifier for SQLite.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// scope resolves field names: to table columns at the root, or to members
// of the JSON value doc at path below a navigation.
type scope struct {
	doc   string
	path  string
	depth int
}

func (sc scope) accessor(name string) string {
	if sc.doc == "" {
		return quoteIdentifier(name)
	}
	return fmt.Sprintf("json_extract(%s, %s)", sc.doc, quoteLiteral(jsonPath(sc.path, name)))
}

func (sc scope) enter(name string) scope {
	if sc.doc == "" {
		return scope{doc: quoteIdentifier(name), path: "$", depth: sc.depth}
	}
	return scope{doc: sc.doc, path: jsonPath(sc.path, name), depth: sc.depth}
}

func (sc scope) each(name string) string {
	if sc.doc == "" {
		return fmt.Sprintf("json_each(%s)", quoteIdentifier(name))
	}
	return fmt.Sprintf("json_each(%s, %s)", sc.doc, quoteLiteral(jsonPath(sc.path, name)))
}

func jsonPath(base, key string) string {
	for _, r := range key {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return base + `."` + strings.ReplaceAll(key, `"`, `\"`) + `"`
		}
	}
	return base + "." + key
}

// Where lowers pred into a WHERE condition and its parameters. A nil
// predicate yields an empty condition.
func (g *Generator) Where(pred expr.Predicate) (string, []any, error) {
	if pred == nil {
		return "", nil, nil
	}
	var params []any
	cond, err := g.lower(scope{}, pred, &params)
	if err != nil {
		return "", nil, err
	}
	return cond, params, nil
}

func (g *Generator) lower(sc scope, p expr.Predicate, params *[]any) (string, error) {
	switch n := p.(type) {
	case expr.Const:
		if n.Value {
			return "1=1", nil
		}
		return "1=0", nil
	case expr.And:
		return g.join(sc, n.Predicates, " AND ", "1=1", params)
	case expr.Or:
		return g.join(sc, n.Predicates, " OR ", "1=0", params)
	case expr.Not:
		inner, err := g.lower(sc, n.Predicate, params)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case expr.IsNull:
		return sc.accessor(n.Field.Name) + " IS NULL", nil
	case expr.Compare:
		return g.compare(sc, n, params)
	case expr.Text:
		return g.text(sc, n, params)
	case expr.Nested:
		inner, err := g.lower(sc.enter(n.Field.Name), n.Predicate, params)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s IS NOT NULL AND %s)", sc.accessor(n.Field.Name), inner), nil
	case expr.Any:
		alias := fmt.Sprintf("e%d", sc.depth+1)
		element := scope{doc: alias + ".value", path: "$", depth: sc.depth + 1}
		inner, err := g.lower(element, n.Predicate, params)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS %s WHERE %s)", sc.each(n.Field.Name), alias, inner), nil
	}
	return "", fmt.Errorf("unsupported predicate %T", p)
}

func (g *Generator) join(sc scope, ps []expr.Predicate, sep, empty string, params *[]any) (string, error) {
	if len(ps) == 0 {
		return empty, nil
	}
	clauses := make([]string, 0, len(ps))
	for _, p := range ps {
		clause, err := g.lower(sc, p, params)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return "(" + strings.Join(clauses, sep) + ")", nil
}

// compare binds the value in its stored form. Neq also matches NULL to
// agree with in-memory evaluation.
func (g *Generator) compare(sc scope, c expr.Compare, params *[]any) (string, error) {
	acc := sc.accessor(c.Field.Name)
	ordinal := c.Op != expr.Eq && c.Op != expr.Neq
	if ev, ok := c.Value.(expr.EnumValue); ok && ordinal {
		acc = enumOrdinal(acc, c.Field.Enum)
		*params = append(*params, ev.Code)
	} else {
		v, err := bindValue(c.Value)
		if err != nil {
			return "", fmt.Errorf("failed to prepare value for condition field '%s': %w", c.Field.Name, err)
		}
		*params = append(*params, v)
	}

	switch c.Op {
	case expr.Eq:
		return acc + " = ?", nil
	case expr.Neq:
		return fmt.Sprintf("(%s IS NULL OR %s != ?)", acc, acc), nil
	case expr.Lt:
		return acc + " < ?", nil
	case expr.Lte:
		return acc + " <= ?", nil
	case expr.Gt:
		return acc + " > ?", nil
	case expr.Gte:
		return acc + " >= ?", nil
	}
	return "", fmt.Errorf("unsupported comparison operator for direct SQL: %s", c.Op)
}

// text folds the column with the registered fold function and matches it
// against the already folded value. NULL never matches.
func (g *Generator) text(sc scope, t expr.Text, params *[]any) (string, error) {
	acc := sc.accessor(t.Field.Name)
	subject := fmt.Sprintf("CAST(%s AS TEXT)", acc)
	if t.Fold {
		subject = fmt.Sprintf("%s(%s, ?)", foldFunction, subject)
		*params = append(*params, t.Culture.String())
	}

	var cond string
	switch t.Op {
	case expr.Contains:
		cond = fmt.Sprintf("instr(%s, ?) > 0", subject)
		*params = append(*params, t.Value)
	case expr.StartsWith:
		cond = subject + ` LIKE ? ESCAPE '\'`
		*params = append(*params, escapeLike(t.Value)+"%")
	case expr.EndsWith:
		cond = subject + ` LIKE ? ESCAPE '\'`
		*params = append(*params, "%"+escapeLike(t.Value))
	case expr.Equals:
		cond = subject + " = ?"
		*params = append(*params, t.Value)
	default:
		return "", fmt.Errorf("unsupported text operation for direct SQL: %s", t.Op)
	}
	return fmt.Sprintf("(CASE WHEN %s IS NULL THEN 0 ELSE %s END)", acc, cond), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// enumOrdinal maps stored member names to their codes.
func enumOrdinal(acc string, members []schema.EnumMember) string {
	var b strings.Builder
	b.WriteString("CASE " + acc)
	for _, m := range members {
		fmt.Fprintf(&b, " WHEN %s THEN %d", quoteLiteral(m.Name), m.Code)
	}
	b.WriteString(" END")
	return b.String()
}

// bindValue converts a compiled value to the form it is stored in.
func bindValue(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case *apd.Decimal:
		return decimalParam(x)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case uuid.UUID:
		return x.String(), nil
	case time.Time:
		return formatTime(x), nil
	case expr.EnumValue:
		return x.Name, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func decimalParam(d *apd.Decimal) (any, error) {
	if i, err := d.Int64(); err == nil {
		return i, nil
	}
	return d.Float64()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// OrderBy lowers ordering into an ORDER BY list. Constant keys are dropped
// and rowid breaks ties so that results are stable.
func (g *Generator) OrderBy(ordering expr.Ordering) (string, error) {
	var parts []string
	for _, key := range ordering {
		if key.Constant {
			continue
		}
		if len(key.Path) == 0 {
			return "", fmt.Errorf("cannot order rows by the record itself")
		}
		sc := scope{}
		for _, f := range key.Path[:len(key.Path)-1] {
			sc = sc.enter(f.Name)
		}
		last := key.Path[len(key.Path)-1]
		acc := sc.accessor(last.Name)
		if last.Kind == schema.KindEnum {
			acc = enumOrdinal(acc, last.Enum)
		}
		dir := "ASC"
		if key.Descending {
			dir = "DESC"
		}
		parts = append(parts, acc+" "+dir)
	}
	parts = append(parts, "rowid ASC")
	return strings.Join(parts, ", "), nil
}

// SelectSQL creates a SELECT statement returning the rows that match pred in
// the given order.
func (g *Generator) SelectSQL(pred expr.Predicate, ordering expr.Ordering) (string, []any, error) {
	where, params, err := g.Where(pred)
	if err != nil {
		return "", nil, fmt.Errorf("error building WHERE clause: %w", err)
	}
	orderBy, err := g.OrderBy(ordering)
	if err != nil {
		return "", nil, fmt.Errorf("sort error: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM " + quoteIdentifier(g.schema.Name))
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}
	sb.WriteString(" ORDER BY " + orderBy)
	return sb.String() + ";", params, nil
}

// DeleteSQL creates a DELETE statement for the rows that match pred. For
// safety a nil predicate is rejected unless unsafeDelete is set.
func (g *Generator) DeleteSQL(pred expr.Predicate, unsafeDelete bool) (string, []any, error) {
	if pred == nil && !unsafeDelete {
		return "", nil, fmt.Errorf("DELETE without WHERE clause is not allowed for safety. Set unsafeDelete=true to override")
	}
	where, params, err := g.Where(pred)
	if err != nil {
		return "", nil, fmt.Errorf("error building WHERE clause for delete: %w", err)
	}
	sql := "DELETE FROM " + quoteIdentifier(g.schema.Name)
	if where != "" {
		sql += " WHERE " + where
	}
	return sql + ";", params, nil
}

// InsertSQL creates a single INSERT statement for records. Columns are the
// union of the records' keys in sorted order; missing keys insert NULL.
func (g *Generator) InsertSQL(records []schema.Document) (string, []any, error) {
	if len(records) == 0 {
		return "", nil, fmt.Errorf("no records provided for insert")
	}

	fieldSet := make(map[string]bool)
	for _, record := range records {
		for fieldName := range record {
			if _, exists := g.schema.Fields[fieldName]; !exists {
				return "", nil, fmt.Errorf("field '%s' not found in schema", fieldName)
			}
			fieldSet[fieldName] = true
		}
	}
	var fields []string
	for _, key := range sortedFieldNames(g.schema.Fields) {
		if fieldSet[key] {
			fields = append(fields, key)
		}
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("no valid fields found in records")
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteIdentifier(f)
	}
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ") + ")"

	var values []string
	var params []any
	for _, record := range records {
		for _, f := range fields {
			v, err := g.prepareValue(g.schema.Fields[f], record[f])
			if err != nil {
				return "", nil, fmt.Errorf("error preparing value for field '%s': %w", f, err)
			}
			params = append(params, v)
		}
		values = append(values, placeholders)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s;",
		quoteIdentifier(g.schema.Name), strings.Join(quoted, ", "), strings.Join(values, ", "))
	return sql, params, nil
}

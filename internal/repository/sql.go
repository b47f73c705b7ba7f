package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
)

// System columns. Attribute names may not reuse them.
const (
	colID           = "id"
	colCreatedAt    = "created_at"
	colRegistration = "registration_id"
	colParent       = "parent_id"
	colPos          = "pos"
	colSeq          = "seq"
)

var systemColumns = map[string]bool{
	colID: true, colCreatedAt: true, colRegistration: true, colParent: true, colPos: true, colSeq: true,
}

// dialect captures the differences between the SQL backends.
type dialect struct {
	name string
	// param returns the n-th (1-based) bind placeholder.
	param func(n int) string
	// topColumns and childID are the DDL of the system columns.
	topColumns string
	childID    string
	regIDType  string
	// order is the column giving creation order of top-level rows.
	order  string
	types  map[schema.Kind]string
	text   func(length int) string
	millis bool
}

var postgresDialect = dialect{
	name:       "postgres",
	param:      func(n int) string { return "$" + strconv.Itoa(n) },
	topColumns: "id uuid PRIMARY KEY, seq bigserial NOT NULL UNIQUE, created_at timestamptz NOT NULL",
	childID:    "id bigserial PRIMARY KEY",
	regIDType:  "uuid",
	order:      colSeq,
	types: map[schema.Kind]string{
		schema.KindInt:      "bigint",
		schema.KindBool:     "boolean",
		schema.KindDatetime: "timestamptz",
	},
	text: func(length int) string {
		if length <= 0 {
			return "text"
		}
		return "varchar(" + strconv.Itoa(length) + ")"
	},
}

var sqliteDialect = dialect{
	name:       "sqlite",
	param:      func(int) string { return "?" },
	topColumns: "id TEXT PRIMARY KEY, created_at INTEGER NOT NULL",
	childID:    "id INTEGER PRIMARY KEY",
	regIDType:  "TEXT",
	order:      "rowid",
	types: map[schema.Kind]string{
		schema.KindInt:      "INTEGER",
		schema.KindBool:     "INTEGER",
		schema.KindDatetime: "INTEGER",
	},
	text:   func(int) string { return "TEXT" },
	millis: true,
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d dialect) params(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = d.param(from + i)
	}
	return strings.Join(ps, ", ")
}

func (d dialect) columnType(c *schema.ColumnSpec) string {
	switch c.Kind {
	case schema.KindString:
		return d.text(c.Length)
	case schema.KindChoice:
		longest := 0
		for _, choice := range c.Attr.Choices {
			longest = max(longest, utf8.RuneCountInString(choice))
		}
		return d.text(longest)
	default:
		return d.types[c.Kind]
	}
}

func (d dialect) encodeTime(t time.Time) any {
	if d.millis {
		return t.UTC().UnixMilli()
	}
	return t.UTC()
}

// encode converts a stored value to a bind argument. Unset ints and times
// become NULL.
func (d dialect) encode(v schema.Value, kind schema.Kind) any {
	switch kind {
	case schema.KindInt:
		if v.IsZero() {
			return nil
		}
		return v.Int()
	case schema.KindBool:
		return v.Bool()
	case schema.KindDatetime:
		if v.IsZero() {
			return nil
		}
		return d.encodeTime(v.Time())
	default:
		return v.Str()
	}
}

// dest returns a scan destination for a column of kind. Every destination
// is a pointer to a pointer so that NULL scans cleanly.
func (d dialect) dest(kind schema.Kind) any {
	switch kind {
	case schema.KindInt:
		return new(*int64)
	case schema.KindBool:
		return new(*bool)
	case schema.KindDatetime:
		if d.millis {
			return new(*int64)
		}
		return new(*time.Time)
	default:
		return new(*string)
	}
}

func (d dialect) decode(dest any, kind schema.Kind) schema.Value {
	switch x := dest.(type) {
	case **int64:
		if *x == nil {
			return schema.Value{}
		}
		if kind == schema.KindDatetime {
			return schema.TimeValue(time.UnixMilli(**x).UTC())
		}
		return schema.IntValue(**x)
	case **bool:
		if *x == nil {
			return schema.Value{}
		}
		return schema.BoolValue(**x)
	case **time.Time:
		if *x == nil {
			return schema.Value{}
		}
		return schema.TimeValue((**x).UTC())
	case **string:
		if *x == nil {
			return schema.Value{}
		}
		if kind == schema.KindChoice {
			return schema.ChoiceValue(**x)
		}
		return schema.StringValue(**x)
	}
	return schema.Value{}
}

// table is the SQL shape of one record type: the top-level registration
// table or a child table owned through a relation column.
type table struct {
	name     string
	relation string
	parent   *table
	columns  []*schema.ColumnSpec
	children []*table

	create string
	insert string
	query  string
}

// plan holds every statement needed to store one event's registrations.
type plan struct {
	storage *schema.StorageType
	top     *table
	// children lists child tables parents first.
	children []*table
}

func newPlan(d dialect, st *schema.StorageType) (*plan, error) {
	p := &plan{storage: st}
	top, err := p.build(d, st.Record(), "", nil)
	if err != nil {
		return nil, err
	}
	p.top = top
	return p, nil
}

func (p *plan) build(d dialect, rt *schema.RecordType, relation string, parent *table) (*table, error) {
	t := &table{name: rt.Table, relation: relation, parent: parent}
	var relations []*schema.ColumnSpec
	for _, c := range rt.Columns() {
		if systemColumns[c.Name()] {
			return nil, fmt.Errorf("table %s: attribute %s collides with a system column", rt.Table, c.Name())
		}
		if c.Relation() {
			relations = append(relations, c)
			continue
		}
		t.columns = append(t.columns, c)
	}

	names := make([]string, len(t.columns))
	defs := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = quote(c.Name())
		defs[i] = quote(c.Name()) + " " + d.columnType(c)
	}

	if parent == nil {
		t.create = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(t.name), joinDefs(d.topColumns, defs))
		t.insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quote(t.name), strings.Join(append([]string{colID, colCreatedAt}, names...), ", "), d.params(1, 2+len(names)))
		t.query = fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
			strings.Join(append([]string{colID, colCreatedAt}, names...), ", "), quote(t.name), d.order)
	} else {
		top := parent
		for top.parent != nil {
			top = top.parent
		}
		system := fmt.Sprintf("%s, %s %s NOT NULL REFERENCES %s (%s) ON DELETE CASCADE, %s bigint, %s integer NOT NULL",
			d.childID, colRegistration, d.regIDType, quote(top.name), colID, colParent, colPos)
		t.create = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(t.name), joinDefs(system, defs))
		t.insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			quote(t.name), strings.Join(append([]string{colRegistration, colParent, colPos}, names...), ", "),
			d.params(1, 3+len(names)), colID)
		t.query = fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
			strings.Join(append([]string{colID, colRegistration, colParent, colPos}, names...), ", "), quote(t.name), colID)
		p.children = append(p.children, t)
	}

	for _, rel := range relations {
		child, err := p.build(d, rel.Elem, rel.Name(), t)
		if err != nil {
			return nil, err
		}
		t.children = append(t.children, child)
	}
	return t, nil
}

func joinDefs(system string, defs []string) string {
	if len(defs) == 0 {
		return system
	}
	return system + ", " + strings.Join(defs, ", ")
}

// schemaStatements returns the CREATE TABLE statements, parents first.
func (p *plan) schemaStatements() []string {
	out := []string{p.top.create}
	for _, t := range p.children {
		out = append(out, t.create)
	}
	return out
}

// row is the part of a result set the SQL stores read.
type row interface {
	Scan(dest ...any) error
}

type rows interface {
	row
	Next() bool
	Err() error
	Close()
}

// conn is a pool, a connection or a transaction of either driver.
type conn interface {
	exec(ctx context.Context, sql string, args ...any) error
	queryRow(ctx context.Context, sql string, args ...any) row
	query(ctx context.Context, sql string, args ...any) (rows, error)
}

type tx interface {
	conn
	commit(ctx context.Context) error
	rollback(ctx context.Context) error
}

// sqlStore implements the registration store on top of a conn. The
// Postgres and SQLite stores differ only in dialect and driver adapter.
type sqlStore struct {
	d     dialect
	db    conn
	begin func(ctx context.Context) (tx, error)

	mu    sync.RWMutex
	plans map[string]*plan
}

func newSQLStore(d dialect, db conn, begin func(ctx context.Context) (tx, error)) *sqlStore {
	return &sqlStore{d: d, db: db, begin: begin, plans: map[string]*plan{}}
}

// Prepare creates the tables of one event if they do not exist.
func (s *sqlStore) Prepare(ctx context.Context, eventID string, st *schema.StorageType) error {
	p, err := newPlan(s.d, st)
	if err != nil {
		return fmt.Errorf("plan %s tables: %w", eventID, err)
	}
	for _, stmt := range p.schemaStatements() {
		if err := s.db.exec(ctx, stmt); err != nil {
			return fmt.Errorf("create %s tables: %w", eventID, err)
		}
	}
	s.mu.Lock()
	s.plans[eventID] = p
	s.mu.Unlock()
	return nil
}

func (s *sqlStore) plan(eventID string) (*plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, eventID)
	}
	return p, nil
}

// InsertRegistration writes the registration and all its child rows in one
// transaction.
func (s *sqlStore) InsertRegistration(ctx context.Context, eventID string, reg *schema.Registration) (err error) {
	p, err := s.plan(eventID)
	if err != nil {
		return err
	}

	t, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = t.rollback(ctx)
		}
	}()

	args := []any{reg.ID, s.d.encodeTime(reg.CreatedAt)}
	args = append(args, s.encodeColumns(p.top, reg.Record())...)
	if err = t.exec(ctx, p.top.insert, args...); err != nil {
		return fmt.Errorf("insert %s: %w", p.top.name, err)
	}
	if err = s.insertChildren(ctx, t, p.top, reg.ID, nil, reg.Record()); err != nil {
		return err
	}

	if err = t.commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *sqlStore) encodeColumns(t *table, rec *schema.Record) []any {
	args := make([]any, 0, len(t.columns))
	for _, c := range t.columns {
		args = append(args, s.d.encode(rec.Get(c.Name()), c.Kind))
	}
	return args
}

func (s *sqlStore) insertChildren(ctx context.Context, c conn, t *table, regID string, parentID any, rec *schema.Record) error {
	for _, child := range t.children {
		for pos, r := range rec.Rows(child.relation) {
			args := append([]any{regID, parentID, pos}, s.encodeColumns(child, r)...)
			var id int64
			if err := c.queryRow(ctx, child.insert, args...).Scan(&id); err != nil {
				return fmt.Errorf("insert %s: %w", child.name, err)
			}
			if err := s.insertChildren(ctx, c, child, regID, id, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListRegistrations loads every registration of the event in creation
// order. Child rows are attached to their parents in insertion order.
func (s *sqlStore) ListRegistrations(ctx context.Context, eventID string) ([]*schema.Registration, error) {
	p, err := s.plan(eventID)
	if err != nil {
		return nil, err
	}

	var regs []*schema.Registration
	byID := map[string]*schema.Registration{}
	err = s.scanAll(ctx, p.top, func(id string, created time.Time, values []any) error {
		reg := p.storage.New(id, created)
		if err := s.setColumns(p.top, reg.Record(), values); err != nil {
			return err
		}
		regs = append(regs, reg)
		byID[id] = reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := map[*table]map[int64]*schema.Record{}
	for _, t := range p.children {
		records[t] = map[int64]*schema.Record{}
		if err := s.scanChildren(ctx, t, byID, records); err != nil {
			return nil, err
		}
	}
	return regs, nil
}

func (s *sqlStore) scanAll(ctx context.Context, t *table, fn func(id string, created time.Time, values []any) error) error {
	rs, err := s.db.query(ctx, t.query)
	if err != nil {
		return fmt.Errorf("list %s: %w", t.name, err)
	}
	defer rs.Close()

	for rs.Next() {
		var id string
		created := s.d.dest(schema.KindDatetime)
		values := s.dests(t)
		if err := rs.Scan(append([]any{&id, created}, values...)...); err != nil {
			return fmt.Errorf("scan %s: %w", t.name, err)
		}
		at := s.d.decode(created, schema.KindDatetime).Time()
		if err := fn(id, at, values); err != nil {
			return err
		}
	}
	return rs.Err()
}

func (s *sqlStore) scanChildren(ctx context.Context, t *table, byID map[string]*schema.Registration, records map[*table]map[int64]*schema.Record) error {
	rs, err := s.db.query(ctx, t.query)
	if err != nil {
		return fmt.Errorf("list %s: %w", t.name, err)
	}
	defer rs.Close()

	for rs.Next() {
		var (
			id, pos  int64
			regID    string
			parentID *int64
		)
		values := s.dests(t)
		if err := rs.Scan(append([]any{&id, &regID, &parentID, &pos}, values...)...); err != nil {
			return fmt.Errorf("scan %s: %w", t.name, err)
		}

		var parent *schema.Record
		if parentID == nil {
			if reg, ok := byID[regID]; ok {
				parent = reg.Record()
			}
		} else {
			parent = records[t.parent][*parentID]
		}
		if parent == nil {
			continue
		}
		rec, err := parent.Append(t.relation)
		if err != nil {
			return err
		}
		if err := s.setColumns(t, rec, values); err != nil {
			return err
		}
		records[t][id] = rec
	}
	return rs.Err()
}

func (s *sqlStore) dests(t *table) []any {
	out := make([]any, len(t.columns))
	for i, c := range t.columns {
		out[i] = s.d.dest(c.Kind)
	}
	return out
}

func (s *sqlStore) setColumns(t *table, rec *schema.Record, values []any) error {
	for i, c := range t.columns {
		if err := rec.Set(c.Name(), s.d.decode(values[i], c.Kind)); err != nil {
			return fmt.Errorf("load %s: %w", t.name, err)
		}
	}
	return nil
}

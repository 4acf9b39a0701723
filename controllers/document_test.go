package controllers

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"testing"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Scripted SQL driver: replays canned rows (or an error) for expected
// queries, so query helpers can be tested without a database.

type queryStep struct {
	pattern *regexp.Regexp
	args    []driver.Value
	columns []string
	rows    [][]driver.Value
	err     error
}

type scriptedDB struct {
	steps []*queryStep
}

func (db *scriptedDB) next(query string, args []driver.NamedValue) (*queryStep, error) {
	if len(db.steps) == 0 {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	step := db.steps[0]
	if !step.pattern.MatchString(query) {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	if len(step.args) != len(args) {
		return nil, fmt.Errorf("unexpected arg count for %s: got %d want %d", query, len(args), len(step.args))
	}
	for i := range args {
		if args[i].Value != step.args[i] {
			return nil, fmt.Errorf("unexpected arg %d for %s: got %v want %v", i, query, args[i].Value, step.args[i])
		}
	}
	db.steps = db.steps[1:]
	return step, nil
}

type scriptedDriver struct {
	db *scriptedDB
}

func (d *scriptedDriver) Open(string) (driver.Conn, error) {
	return &scriptedConn{db: d.db}, nil
}

type scriptedConn struct {
	db *scriptedDB
}

func (c *scriptedConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *scriptedConn) Close() error { return nil }

func (c *scriptedConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *scriptedConn) Query(query string, args []driver.Value) (driver.Rows, error) {
	step, err := c.db.next(query, namedValues(args))
	if err != nil {
		return nil, err
	}
	if step.err != nil {
		return nil, step.err
	}
	return &scriptedRows{columns: step.columns, rows: step.rows}, nil
}

func namedValues(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named
}

type scriptedRows struct {
	columns []string
	rows    [][]driver.Value
	idx     int
}

func (r *scriptedRows) Columns() []string { return r.columns }

func (r *scriptedRows) Close() error { return nil }

func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func newScriptedGormDB(t *testing.T, steps []*queryStep) *gorm.DB {
	t.Helper()
	state := &scriptedDB{steps: steps}
	driverName := fmt.Sprintf("scripted_%d", time.Now().UnixNano())
	sql.Register(driverName, &scriptedDriver{db: state})

	sqlDB, err := sql.Open(driverName, "")
	if err != nil {
		t.Fatalf("failed to open sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to create gorm db: %v", err)
	}
	return gormDB
}

var accessQueryPattern = regexp.MustCompile("SELECT count\\(\\*\\) FROM `reviews` JOIN revisions")

func TestReviewerHasFileAccessGranted(t *testing.T) {
	db := newScriptedGormDB(t, []*queryStep{{
		pattern: accessQueryPattern,
		args:    []driver.Value{int64(5), int64(9)},
		columns: []string{"count(*)"},
		rows:    [][]driver.Value{{int64(1)}},
	}})

	allowed, err := reviewerHasFileAccess(db, 5, 9)
	if err != nil {
		t.Fatalf("reviewerHasFileAccess returned error: %v", err)
	}
	if !allowed {
		t.Error("reviewer with a manifest reference should be allowed")
	}
}

func TestReviewerHasFileAccessDenied(t *testing.T) {
	db := newScriptedGormDB(t, []*queryStep{{
		pattern: accessQueryPattern,
		args:    []driver.Value{int64(5), int64(9)},
		columns: []string{"count(*)"},
		rows:    [][]driver.Value{{int64(0)}},
	}})

	allowed, err := reviewerHasFileAccess(db, 5, 9)
	if err != nil {
		t.Fatalf("reviewerHasFileAccess returned error: %v", err)
	}
	if allowed {
		t.Error("reviewer without a manifest reference must be denied")
	}
}

func TestReviewerHasFileAccessQueryError(t *testing.T) {
	dbErr := errors.New("driver: bad connection")
	db := newScriptedGormDB(t, []*queryStep{{
		pattern: accessQueryPattern,
		args:    []driver.Value{int64(5), int64(9)},
		err:     dbErr,
	}})

	allowed, err := reviewerHasFileAccess(db, 5, 9)
	if err == nil {
		t.Fatal("a database error must be surfaced, not swallowed")
	}
	if allowed {
		t.Error("a database error must not grant access")
	}
}

package ledger

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"

	"blackjack-server/internal/util"
	"blackjack-server/pkg/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPostgres(t *testing.T) {
	if util.Getenv("BJS_PG_DSN", "") == "" {
		t.Skip("BJS_PG_DSN is not set")
	}

	a := assert.New(t)
	l := NewPostgres(db.Instance(), 500)
	identity := "test-" + uuid.New().String()

	balance, err := l.GetBalance(cbg, identity)
	a.NoError(err)
	a.Equal(500, balance)

	a.NoError(l.ApplyDelta(cbg, identity, -20))
	a.NoError(l.ApplyDelta(cbg, identity, 5))

	balance, err = l.GetBalance(cbg, identity)
	a.NoError(err)
	a.Equal(485, balance)

	other := "test-" + uuid.New().String()
	a.NoError(l.ApplyDelta(cbg, other, 10), "writes create the account")
	balance, _ = l.GetBalance(cbg, other)
	a.Equal(510, balance)
}

// recordingConn is a database/sql driver that records every statement it executes
type recordingConn struct {
	mu    sync.Mutex
	query string
	args  []driver.NamedValue
}

func (c *recordingConn) Open(string) (driver.Conn, error) {
	return c, nil
}

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare is not supported")
}

func (c *recordingConn) Close() error {
	return nil
}

func (c *recordingConn) Begin() (driver.Tx, error) {
	return nil, errors.New("begin is not supported")
}

func (c *recordingConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.query = query
	c.args = args
	return driver.RowsAffected(1), nil
}

var recorder = &recordingConn{}

func init() {
	sql.Register("ledger-recorder", recorder)
}

func TestPostgres_ApplyDelta_typedParameters(t *testing.T) {
	a := assert.New(t)

	conn, err := sql.Open("ledger-recorder", "")
	a.NoError(err)
	defer conn.Close()

	l := NewPostgres(conn, 500)
	a.NoError(l.ApplyDelta(cbg, "acct", -20))

	recorder.mu.Lock()
	defer recorder.mu.Unlock()

	a.NotContains(recorder.query, "$2 + $3")
	a.Contains(recorder.query, "$2::integer")
	a.Contains(recorder.query, "$3::integer")

	values := make([]interface{}, len(recorder.args))
	for i, arg := range recorder.args {
		values[i] = arg.Value
	}

	a.Equal([]interface{}{"acct", int64(480), int64(-20)}, values)
	a.Equal(ErrInvalidIdentity, l.ApplyDelta(cbg, "", 5))
}

package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/risbow/risbow-backend/pkg/config"
	"github.com/risbow/risbow-backend/pkg/logger"
)

type ledgerRow struct {
	ID   int
	Note string
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&ledgerRow{}))
	client := FromConn(conn)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func countRows(t *testing.T, c *Client) int64 {
	t.Helper()
	var n int64
	require.NoError(t, c.DB().Model(&ledgerRow{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	c := newTestClient(t)
	err := c.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&ledgerRow{Note: "kept"}).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, countRows(t, c))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	c := newTestClient(t)
	boom := errors.New("boom")
	err := c.WithTx(context.Background(), func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&ledgerRow{Note: "dropped"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, countRows(t, c))
}

func TestWithTxRollsBackAndRepanics(t *testing.T) {
	c := newTestClient(t)
	assert.PanicsWithValue(t, "kaboom", func() {
		_ = c.WithTx(context.Background(), func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&ledgerRow{Note: "dropped"}).Error)
			panic("kaboom")
		})
	})
	assert.Zero(t, countRows(t, c))
}

func TestPing(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	assert.Error(t, err)
}

func TestQueryLoggerReportsSlowStatements(t *testing.T) {
	assert.Equal(t, gormlogger.Discard, queryLogger(nil, config.DBConfig{SlowQuery: time.Second}))

	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "db-test", Output: &buf})
	ql := queryLogger(logg, config.DBConfig{SlowQuery: time.Nanosecond})
	ql.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
	assert.Contains(t, buf.String(), "SLOW SQL")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: replacement_orders.return_id"), ""))
	assert.True(t, IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "ux_replacement_orders_return_id"`), "ux_replacement_orders_return_id"))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey, ""))
	assert.False(t, IsUniqueViolation(errors.New("connection refused"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
	assert.True(t, IsNotFound(gorm.ErrRecordNotFound))
}

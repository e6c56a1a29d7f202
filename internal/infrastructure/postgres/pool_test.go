package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-assistant/pkg/config"
)

func TestNewPoolConfig(t *testing.T) {
	cfg := config.DBConfig{Host: "db.internal", Port: 5433, User: "reader", Password: "s3cr@t", DBName: "invoices", SSLMode: "disable", MaxConns: 4}

	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 4, pc.MaxConns)
	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.EqualValues(t, 5433, pc.ConnConfig.Port)
	assert.Equal(t, "s3cr@t", pc.ConnConfig.Password)
	assert.Equal(t, 10*time.Second, pc.ConnConfig.ConnectTimeout)
	assert.NotNil(t, pc.AfterConnect)
}

func TestNewPoolConfig_DefaultsAndErrors(t *testing.T) {
	pc, err := newPoolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@localhost:5432/invoices"})
	require.NoError(t, err)
	assert.EqualValues(t, defaultMaxConns, pc.MaxConns)

	_, err = newPoolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@localhost:notaport/x"})
	assert.Error(t, err)
}

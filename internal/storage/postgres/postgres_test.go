package postgres

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
)

func TestInit_Unreachable(t *testing.T) {
	b := New(config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "postgres",
		Password: "postgres",
		Database: "ringstream",
	}, zerolog.Nop(), nil)

	err := b.Init()
	assert.ErrorContains(t, err, "failed to connect to postgres")
	assert.NoError(t, b.Close())
}

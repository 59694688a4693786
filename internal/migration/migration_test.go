package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	participantdomain "github.com/smallbiznis/chargeflow/internal/marketparticipant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, ups, downs)
}

func TestAutoMigrateAndSeed(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(conn))

	participants := []participantdomain.MarketParticipant{
		{ID: 10, MarketParticipantID: "5790000000005", BusinessProcessRole: "DDM", IsActive: true},
	}
	require.NoError(t, SeedMarketParticipants(conn, participants))
	require.NoError(t, SeedMarketParticipants(conn, participants))

	var count int64
	require.NoError(t, conn.Model(&participantdomain.MarketParticipant{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	for _, table := range []string{"charges", "charge_periods", "charge_points", "market_participants", "charge_outcome_events"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

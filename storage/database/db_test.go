package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/curriculum/core"
)

// chdir moves into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestOpen_defaultSqlite(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("DEV_DATABASE_ENGINE", "")
	t.Setenv("DEV_DATABASE_PATH", "")
	chdir(t, t.TempDir())

	conf := core.NewConfig()
	require.Equal(t, EngineSqlite, conf.Database.Engine)
	require.Equal(t, filepath.Join("data", "curriculum.db"), conf.Database.Path)

	db, err := Open(conf)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, Migrate(db.DB, conf.Database.Engine))
	assert.FileExists(t, conf.Database.Path)
}

func TestOpen_nestedSqlitePath(t *testing.T) {
	conf := &core.Config{}
	conf.Database.Engine = EngineSqlite
	conf.Database.Path = filepath.Join(t.TempDir(), "a", "b", "mapping.db")

	db, err := Open(conf)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.DirExists(t, filepath.Dir(conf.Database.Path))
}

func TestOpen_memoryEngine(t *testing.T) {
	conf := &core.Config{}
	conf.Database.Engine = EngineMemory

	_, err := Open(conf)
	assert.ErrorIs(t, err, ErrNoSQLEngine)
}

func TestGooseDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", GooseDialect(EngineSqlite))
	assert.Equal(t, "postgres", GooseDialect(EnginePostgres))
}

func TestCreateIfNotExist_closesConnections(t *testing.T) {
	tests := []struct {
		name       string
		user       string
		wantErrStr string
		wantOpened int
	}{
		// sqlite has no pg_roles / pg_database: each step fails after its connection is open
		{name: "creating app user fails", user: "curriculum", wantErrStr: "creating app user", wantOpened: 1},
		{name: "creating database fails", wantErrStr: "creating database", wantOpened: 2},
	}
	origOpen := openPostgresFunc
	defer func() { openPostgresFunc = origOpen }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened []*sqlx.DB
			openPostgresFunc = func(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
				db, err := openSqlite(":memory:")
				if err == nil {
					opened = append(opened, db)
				}
				return db, err
			}

			conf := &core.Config{}
			conf.Database.Engine = EnginePostgres
			conf.Database.Name = "curriculum"
			conf.Database.User = tt.user

			err := CreateIfNotExist(conf)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErrStr)

			require.Len(t, opened, tt.wantOpened)
			for _, db := range opened {
				assert.EqualError(t, db.Ping(), "sql: database is closed")
			}
		})
	}
}

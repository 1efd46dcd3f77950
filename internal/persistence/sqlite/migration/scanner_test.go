package migration

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/errs"
)

func TestScannerOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/002_add_index.sql":   {Data: []byte("CREATE INDEX idx_t_name ON t(name);")},
		"sql/001_create_t.sql":    {Data: []byte("-- Description: create table t\nCREATE TABLE t (name TEXT);")},
		"sql/README.md":           {Data: []byte("ignored")},
		"sql/nested/003_skip.sql": {Data: []byte("SELECT 1;")},
	}

	migrations, err := NewScanner(fsys, "sql").Scan()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create table t", migrations[0].Description)
	assert.Equal(t, "sql/001_create_t.sql", migrations[0].FilePath)
	assert.Len(t, migrations[0].Checksum, 64)

	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, "add index", migrations[1].Description)
}

func TestScannerRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want error
	}{
		{
			name: "bad name",
			fsys: fstest.MapFS{"create.sql": {Data: []byte("SELECT 1;")}},
			want: ErrInvalidMigrationFile,
		},
		{
			name: "comments only",
			fsys: fstest.MapFS{"001_empty.sql": {Data: []byte("-- nothing here\n")}},
			want: ErrInvalidMigrationFile,
		},
		{
			name: "duplicate version",
			fsys: fstest.MapFS{
				"001_a.sql":  {Data: []byte("SELECT 1;")},
				"0001_b.sql": {Data: []byte("SELECT 2;")},
			},
			want: ErrDuplicateVersion,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScanner(tt.fsys, ".").Scan()
			require.Error(t, err)
			assert.True(t, errs.Is(err, tt.want), "got %v", err)

			var migrationErr *MigrationError
			assert.True(t, errs.As(err, &migrationErr))
		})
	}
}

func TestValidateFileName(t *testing.T) {
	assert.NoError(t, ValidateFileName("010_add-rooms.sql"))
	assert.Error(t, ValidateFileName("add_rooms.sql"))
	assert.Error(t, ValidateFileName("001_add rooms.sql"))
	assert.Error(t, ValidateFileName("001_add_rooms.SQL"))
}

package dbcmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cuihairu/faultline/internal/cli/common"
	"github.com/cuihairu/faultline/internal/db"
	"github.com/cuihairu/faultline/internal/repo/gorm/schema"
	usersgorm "github.com/cuihairu/faultline/internal/repo/gorm/users"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
regions:
  - name: North
    projects:
      - name: Line 4
        chiefdoms: [Kailahun, Kenema]
users:
  - username: admin
    password: change-me
    role: admin
  - username: musa
    password: pw
    role: worker
    chiefdom: Kenema
`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gdb, err := db.Open("file::memory:")
	require.NoError(t, err)
	require.NoError(t, schema.Migrate(gdb))

	f, err := ReadSeedFile(writeSeed(t, seedYAML))
	require.NoError(t, err)

	rep, err := Seed(ctx, gdb, f)
	require.NoError(t, err)
	require.Equal(t, SeedReport{Regions: 1, Projects: 1, Chiefdoms: 2, Users: 2}, rep)

	rep, err = Seed(ctx, gdb, f)
	require.NoError(t, err)
	require.Equal(t, SeedReport{}, rep)

	worker, err := usersgorm.New(gdb).GetUserByUsername(ctx, "musa")
	require.NoError(t, err)
	require.NotNil(t, worker.ChiefdomID)
}

func TestSeedUnknownChiefdom(t *testing.T) {
	gdb, err := db.Open("file::memory:")
	require.NoError(t, err)
	require.NoError(t, schema.Migrate(gdb))

	f := &SeedFile{Users: []SeedUser{{Username: "w", Password: "pw", Role: "worker", Chiefdom: "Nowhere"}}}
	_, err = Seed(context.Background(), gdb, f)
	require.ErrorContains(t, err, "Nowhere")
}

func TestReadSeedFileRejectsGarbage(t *testing.T) {
	_, err := ReadSeedFile(writeSeed(t, "regions: [oops"))
	require.Error(t, err)
}

func TestSeedCommand(t *testing.T) {
	dsn := "file:" + filepath.ToSlash(filepath.Join(t.TempDir(), "faultline.db"))
	root := &cobra.Command{Use: "faultctl", SilenceUsage: true}
	common.AddPersistentFlags(root)
	root.AddCommand(NewMigrate(), NewSeed(), NewPurgeKeys())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"seed", "--dsn", dsn, "-f", writeSeed(t, seedYAML)})
	require.NoError(t, root.ExecuteContext(t.Context()))
	require.Contains(t, out.String(), "created 1 regions, 1 projects, 2 chiefdoms, 2 users")

	out.Reset()
	root.SetArgs([]string{"migrate", "--dsn", dsn})
	require.NoError(t, root.ExecuteContext(t.Context()))
	require.Contains(t, out.String(), "migrated")

	out.Reset()
	root.SetArgs([]string{"purge-keys", "--dsn", dsn})
	require.NoError(t, root.ExecuteContext(t.Context()))
	require.Contains(t, out.String(), "purged 0 expired keys")
}

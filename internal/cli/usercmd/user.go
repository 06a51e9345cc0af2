// Package usercmd manages accounts from the command line, mainly to create the
// first admin before anyone can log in.
package usercmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cuihairu/faultline/internal/access"
	"github.com/cuihairu/faultline/internal/audit/chain"
	"github.com/cuihairu/faultline/internal/cli/common"
	usersgorm "github.com/cuihairu/faultline/internal/repo/gorm/users"
	usersvc "github.com/cuihairu/faultline/internal/service/users"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// operator acts with admin rights on behalf of whoever runs faultctl.
var operator = access.Identity{Username: "faultctl", Role: access.RoleAdmin}

// New returns the `faultctl user` command group.
func New() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage user accounts"}
	cmd.AddCommand(newCreate(), newPasswd())
	return cmd
}

type env struct {
	users *usersvc.Service
	repo  *usersgorm.Repo
	audit *chain.Writer
}

func withService(cmd *cobra.Command, fn func(env) error) error {
	v, err := common.FromCommand(cmd)
	if err != nil {
		return err
	}
	audit, err := common.OpenAudit(v)
	if err != nil {
		return err
	}
	defer audit.Close()
	gdb, err := common.OpenDB(v)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDB(gdb)
	repo := usersgorm.New(gdb)
	return fn(env{users: usersvc.NewService(repo, nil), repo: repo, audit: audit})
}

func (e env) record(kind string, userID uint, meta map[string]string) {
	if err := e.audit.Log(kind, operator.Username, "user:"+strconv.FormatUint(uint64(userID), 10), meta); err != nil {
		slog.Error("audit write failed", "kind", kind, "err", err)
	}
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newCreate() *cobra.Command {
	var in usersvc.CreateInput
	var chiefdomID uint
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if chiefdomID > 0 {
				in.ChiefdomID = &chiefdomID
			}
			return withService(cmd, func(e env) error {
				u, err := e.users.Create(cmd.Context(), in)
				if err != nil {
					return err
				}
				e.record("user.create", u.ID, map[string]string{"role": u.Role})
				slog.Info("user created", "id", u.ID, "username", u.Username, "role", u.Role)
				fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", u.ID, u.Username, u.Role)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Username, "username", "", "login name")
	f.StringVar(&in.Password, "password", "", "initial password")
	f.StringVar(&in.Role, "role", string(access.RoleAdmin), "admin|engineer|ctc_watchman|ctc|worker")
	f.StringVar(&in.Name, "name", "", "display name")
	f.UintVar(&chiefdomID, "chiefdom-id", 0, "chiefdom, required for workers")
	f.StringVar(&in.Email, "email", "", "")
	f.StringVar(&in.Phone, "phone", "", "")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newPasswd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Reset a user's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(e env) error {
				u, err := e.repo.GetUserByUsername(cmd.Context(), username)
				if err != nil {
					return err
				}
				if err := e.users.ChangePassword(cmd.Context(), operator, u.ID, "", password); err != nil {
					return err
				}
				e.record("user.password", u.ID, nil)
				slog.Info("password reset", "username", u.Username)
				fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", u.Username)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account to reset")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

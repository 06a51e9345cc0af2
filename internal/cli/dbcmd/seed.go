package dbcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cuihairu/faultline/internal/cli/common"
	"github.com/cuihairu/faultline/internal/errs"
	repoorg "github.com/cuihairu/faultline/internal/repo/gorm/org"
	"github.com/cuihairu/faultline/internal/repo/gorm/schema"
	usersgorm "github.com/cuihairu/faultline/internal/repo/gorm/users"
	orgsvc "github.com/cuihairu/faultline/internal/service/org"
	usersvc "github.com/cuihairu/faultline/internal/service/users"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedFile describes an org tree and the accounts to create in it.
//
//	regions:
//	  - name: North
//	    projects:
//	      - name: Line 4
//	        chiefdoms: [Kailahun, Kenema]
//	users:
//	  - username: admin
//	    password: change-me
//	    role: admin
type SeedFile struct {
	Regions []SeedRegion `yaml:"regions"`
	Users   []SeedUser   `yaml:"users"`
}

type SeedRegion struct {
	Name     string        `yaml:"name"`
	Projects []SeedProject `yaml:"projects"`
}

type SeedProject struct {
	Name      string   `yaml:"name"`
	Chiefdoms []string `yaml:"chiefdoms"`
}

// SeedUser names its chiefdom rather than referencing an id.
type SeedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Chiefdom string `yaml:"chiefdom"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
}

// SeedReport counts what a seed run created; existing rows are skipped.
type SeedReport struct {
	Regions, Projects, Chiefdoms, Users int
}

func ReadSeedFile(path string) (*SeedFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f SeedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// Seed applies f. Rows are matched by name, so running it twice is a no-op.
func Seed(ctx context.Context, gdb *gorm.DB, f *SeedFile) (SeedReport, error) {
	var rep SeedReport
	org := orgsvc.NewService(repoorg.NewRepo(gdb))
	repo := usersgorm.New(gdb)
	users := usersvc.NewService(repo, nil)

	chiefdoms := map[string]uint{}
	for _, r := range f.Regions {
		region, created, err := findOrCreateRegion(ctx, org, r.Name)
		if err != nil {
			return rep, err
		}
		if created {
			rep.Regions++
		}
		for _, p := range r.Projects {
			project, created, err := findOrCreateProject(ctx, org, p.Name, region.ID)
			if err != nil {
				return rep, err
			}
			if created {
				rep.Projects++
			}
			for _, name := range p.Chiefdoms {
				c, created, err := findOrCreateChiefdom(ctx, org, name, project.ID)
				if err != nil {
					return rep, err
				}
				if created {
					rep.Chiefdoms++
				}
				chiefdoms[c.Name] = c.ID
			}
		}
	}

	for _, u := range f.Users {
		if existing, err := repo.GetUserByUsername(ctx, u.Username); err == nil {
			slog.Debug("seed: user exists", "username", existing.Username)
			continue
		} else if errs.KindOf(err) != errs.KindNotFound {
			return rep, err
		}
		in := usersvc.CreateInput{
			Username: u.Username, Password: u.Password, Name: u.Name,
			Role: u.Role, Email: u.Email, Phone: u.Phone,
		}
		if u.Chiefdom != "" {
			id, ok := chiefdoms[u.Chiefdom]
			if !ok {
				c, err := chiefdomByName(ctx, org, u.Chiefdom)
				if err != nil {
					return rep, fmt.Errorf("user %s: %w", u.Username, err)
				}
				id = c.ID
			}
			in.ChiefdomID = &id
		}
		if _, err := users.Create(ctx, in); err != nil {
			return rep, fmt.Errorf("user %s: %w", u.Username, err)
		}
		rep.Users++
	}
	return rep, nil
}

func findOrCreateRegion(ctx context.Context, org *orgsvc.Service, name string) (*repoorg.Region, bool, error) {
	list, err := org.ListRegions(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, r := range list {
		if r.Name == name {
			return r, false, nil
		}
	}
	r, err := org.CreateRegion(ctx, name)
	return r, err == nil, err
}

func findOrCreateProject(ctx context.Context, org *orgsvc.Service, name string, regionID uint) (*repoorg.Project, bool, error) {
	list, err := org.ListProjects(ctx, 0)
	if err != nil {
		return nil, false, err
	}
	for _, p := range list {
		if p.Name == name {
			return p, false, nil
		}
	}
	p, err := org.CreateProject(ctx, name, &regionID)
	return p, err == nil, err
}

func findOrCreateChiefdom(ctx context.Context, org *orgsvc.Service, name string, projectID uint) (*repoorg.Chiefdom, bool, error) {
	if c, err := chiefdomByName(ctx, org, name); err == nil {
		return c, false, nil
	} else if errs.KindOf(err) != errs.KindNotFound {
		return nil, false, err
	}
	c, err := org.CreateChiefdom(ctx, name, &projectID)
	return c, err == nil, err
}

func chiefdomByName(ctx context.Context, org *orgsvc.Service, name string) (*repoorg.Chiefdom, error) {
	list, err := org.ListChiefdoms(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, c := range list {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, errs.NotFound("chiefdom", name)
}

// NewSeed returns the `faultctl seed` command.
func NewSeed() *cobra.Command {
	var file string
	var migrate bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load regions, projects, chiefdoms and users from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := common.FromCommand(cmd)
			if err != nil {
				return err
			}
			f, err := ReadSeedFile(file)
			if err != nil {
				return err
			}
			gdb, err := common.OpenDB(v)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if sqlDB, err := gdb.DB(); err == nil {
				defer sqlDB.Close()
			}
			if migrate {
				if err := schema.Migrate(gdb); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}
			rep, err := Seed(cmd.Context(), gdb, f)
			if err != nil {
				return err
			}
			slog.Info("seed applied", "regions", rep.Regions, "projects", rep.Projects, "chiefdoms", rep.Chiefdoms, "users", rep.Users)
			fmt.Fprintf(cmd.OutOrStdout(), "created %d regions, %d projects, %d chiefdoms, %d users\n",
				rep.Regions, rep.Projects, rep.Chiefdoms, rep.Users)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "seed file")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run migrations first")
	return cmd
}

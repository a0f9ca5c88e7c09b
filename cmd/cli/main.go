// The fonezone CLI seeds and maintains the actor directory without going
// through the HTTP API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/averybrooks/fonezone/internal/config"
	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
	"github.com/averybrooks/fonezone/internal/session"
)

func openSessions() (*session.Store, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := kv.Open(kv.Options{
		Backend:       cfg.KVBackend,
		SQLitePath:    cfg.DBPath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	return session.NewStore(db), func() { db.Close() }, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "fonezone",
		Short: "Fone Zone storefront admin CLI",
	}

	seedAdminCmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Ensure the bootstrap admin actor exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			sessions, closeDB, err := openSessions()
			if err != nil {
				return err
			}
			defer closeDB()
			if err := sessions.BootstrapAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
				return err
			}
			fmt.Printf("Admin actor %q is present.\n", cfg.AdminEmail)
			return nil
		},
	}

	var promoteEmail, promoteCategory string
	promoteCmd := &cobra.Command{
		Use:   "promote",
		Short: "Promote a customer to an employee category",
		RunE: func(cmd *cobra.Command, args []string) error {
			if promoteEmail == "" || promoteCategory == "" {
				return fmt.Errorf("--email and --category are required")
			}
			sessions, closeDB, err := openSessions()
			if err != nil {
				return err
			}
			defer closeDB()
			actor, err := sessions.Promote(context.Background(), promoteEmail, models.Category(promoteCategory))
			if err != nil {
				return err
			}
			fmt.Printf("Promoted %s to %s (%s).\n", actor.Email, actor.Role, actor.Category)
			return nil
		},
	}
	promoteCmd.Flags().StringVar(&promoteEmail, "email", "", "Email of the actor to promote")
	promoteCmd.Flags().StringVar(&promoteCategory, "category", "", "Employee category (repair-technician, delivery-driver, sales-support)")

	listActorsCmd := &cobra.Command{
		Use:   "list-actors",
		Short: "List every registered actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, closeDB, err := openSessions()
			if err != nil {
				return err
			}
			defer closeDB()
			actors, err := sessions.ListActors(context.Background())
			if err != nil {
				return err
			}
			for _, a := range actors {
				category := string(a.Category)
				if category == "" {
					category = "-"
				}
				fmt.Printf("%-35s %-10s %-20s %s\n", a.Email, a.Role, category, a.Username)
			}
			return nil
		},
	}

	rootCmd.AddCommand(seedAdminCmd, promoteCmd, listActorsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.SetFlags(0)
		log.Println(err)
		os.Exit(1)
	}
}

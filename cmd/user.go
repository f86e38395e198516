/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/obotesoftech/prisonreturns/config"
	"github.com/obotesoftech/prisonreturns/internal/db"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/services"
	"github.com/obotesoftech/prisonreturns/internal/store"
	"github.com/obotesoftech/prisonreturns/types"
	"github.com/spf13/cobra"
)

var (
	userPassword string
	userRole     string
	userStation  string
)

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts directly in the database",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create an account",
	Long: `Creates an account without going through the web UI. Usage:

	prisonreturns user create kigo_m@prison.go.ug --password secret123 --role clerk --station "Kigo (M)"
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()

		accounts := services.NewAccountService(store.NewAccountRepository(conn), cfg.Auth, log)
		account, err := accounts.Register(cmd.Context(), services.RegisterInput{
			Identifier: args[0],
			Password:   userPassword,
			Role:       types.Role(userRole),
			Station:    userStation,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", account.Identifier, account.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Account password (min 6 characters)")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(types.RoleClerk), "One of admin, phq-kla, clerk, receptionist, officer")
	userCreateCmd.Flags().StringVar(&userStation, "station", "", "Station for clerk, receptionist and officer accounts")
	_ = userCreateCmd.MarkFlagRequired("password")
}

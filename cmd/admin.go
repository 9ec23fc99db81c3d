package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/softex1/tably-paket1/services"
	"github.com/softex1/tably-paket1/utils"
)

var (
	adminUsername string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeDB(db)

		auth := services.NewAuthService(db, nil, cfg.JWTSecret, cfg.JWTTTL)
		admin, err := auth.CreateAdmin(context.Background(), adminUsername, adminPassword)
		if err != nil {
			return err
		}
		utils.InfoLogger.Infof("admin %s created with id %d", admin.Username, admin.ID)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVarP(&adminUsername, "username", "u", "", "admin username")
	adminCreateCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "admin password")
	_ = adminCreateCmd.MarkFlagRequired("username")
	_ = adminCreateCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(adminCreateCmd)
	rootCmd.AddCommand(adminCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/softex1/tably-paket1/database"
	"github.com/softex1/tably-paket1/utils"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and rehash legacy passwords",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeDB(db)

		n, err := database.MigratePasswords(db)
		if err != nil {
			return err
		}
		utils.InfoLogger.Infof("migration finished, %d password(s) rehashed", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"insproduce-backend/internal/database"
	"insproduce-backend/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load commodities and initial templates from YAML",
	Long: `Upserts every commodity in the seed file and publishes its template when
the commodity has no active template yet. Without --file (or SEED_FILE) the
built-in berry catalogue is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := seedFile
		if path == "" {
			path = cfg.SeedFile
		}
		f, err := seed.Load(path)
		if err != nil {
			return err
		}

		db, err := openDatabase(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := seed.Apply(cmd.Context(), database.NewTemplateRepo(db), f, log)
		if err != nil {
			return err
		}
		log.Info("seed completed", "commodities", res.Commodities, "templates", res.Templates)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "seed YAML file (default: built-in catalogue)")
	rootCmd.AddCommand(seedCmd)
}

package commands

import "github.com/spf13/cobra"

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Prints the version.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	})
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"fsa-anomaly-lab/internal/dashboard"
)

var dashboardOut string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render Grafana dashboards for the GreptimeDB tables",
	Long:  "dashboard renders Grafana JSON dashboards querying the node event, trend and summary tables. Requires $" + dashboard.EnvDatasourceUID + ".",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboard.Render(dashboardOut, os.Getenv)
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOut, "out", "build", "Directory to write rendered dashboards to")
}

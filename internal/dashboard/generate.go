// Package dashboard renders Grafana dashboards for the GreptimeDB tables
// written by the simulator.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"fsa-anomaly-lab/internal/telemetry"
)

// EnvDatasourceUID names the Grafana datasource the panels query.
const EnvDatasourceUID = "GREPTIMEDB_DATASOURCE_UID"

//go:embed templates/*.tmpl
var templates embed.FS

type tables struct {
	Events  string
	Trend   string
	Summary string
}

// Render writes every dashboard template to outDir with the .tmpl suffix
// dropped. getenv is usually os.Getenv.
func Render(outDir string, getenv func(string) string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}
	data := tables{
		Events:  telemetry.EventTableName,
		Trend:   telemetry.TrendTableName,
		Summary: telemetry.SummaryTableName,
	}

	names, err := templates.ReadDir("templates")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, entry := range names {
		t, err := template.New(entry.Name()).Funcs(funcMap).ParseFS(templates, "templates/"+entry.Name())
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(entry.Name(), ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, data); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", entry.Name(), err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/sovwatch/api"
	"github.com/seenimoa/sovwatch/internal/config"
	"github.com/seenimoa/sovwatch/internal/report"
	"github.com/seenimoa/sovwatch/internal/source"
)

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sovwatch %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP dashboard and API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		api.Version = version

		if warm, _ := cmd.Flags().GetBool("warm"); warm {
			go func() {
				m := a.agg.BuildMatrix(cmd.Context(), a.catalog)
				log.Info().Int("absent", m.Absent()).Msg("cache warmed")
			}()
		}

		srv := api.NewServer(cfg, a.catalog, a.loader, a.agg, a.reports, log)
		return srv.ListenAndServe(cmd.Context(), cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Bool("warm", false, "load every covered series at startup")
}

// --- Country Command ---

var countryCmd = &cobra.Command{
	Use:   "country [code or name]",
	Short: "Show the latest ratings and history of one country",
	Example: `  sovwatch country CR
  sovwatch country "República Dominicana" --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		v, err := a.reports.CountryReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(v)
		}
		fmt.Print(report.CountryText(v))
		return nil
	},
}

func init() {
	countryCmd.Flags().Bool("json", false, "print JSON instead of text")
}

// --- Matrix Command ---

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Show the regional comparison matrix",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		letters, _ := cmd.Flags().GetBool("letters")
		m := a.agg.BuildMatrix(cmd.Context(), a.catalog)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if letters {
				return printJSON(a.agg.BuildLetterMatrix(cmd.Context(), a.catalog))
			}
			return printJSON(m)
		}
		fmt.Print(report.MatrixText(m, letters))
		return nil
	},
}

func init() {
	matrixCmd.Flags().Bool("letters", false, "show rating letters and outlooks instead of ranks")
	matrixCmd.Flags().Bool("json", false, "print JSON instead of text")
}

// --- Scales Command ---

var scalesCmd = &cobra.Command{
	Use:   "scales",
	Short: "Print the rating and outlook ordinal scales",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(report.ScalesText())
	},
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the dashboard as a static site",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")

		res, err := a.reports.Export(cmd.Context(), out)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d files to %s\n", len(res.Files), res.Dir)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "site", "output directory")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and store reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		info := a.store.Info()

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  sovwatch System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Build tag:     %s\n", cfg.Source.BuildTag)
		fmt.Printf("  Countries:     %d\n", a.catalog.Len())
		fmt.Println()

		fmt.Println("  Source:")
		fmt.Printf("    Kind:        %s (%s)\n", info.Kind, info.Description)
		fmt.Printf("    Location:    %s\n", info.Location)
		fmt.Printf("    Format:      %s\n", cfg.Source.Format)

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := a.store.Ping(ctx); err != nil {
			fmt.Printf("    Reachable:   ❌ %v\n", err)
		} else {
			fmt.Println("    Reachable:   ✅")
		}
		fmt.Printf("    API Server:  %s\n", cfg.API.Addr())
		fmt.Println()

		fmt.Println("  Credentials:")
		for _, k := range config.CheckSecrets(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Stores Command ---

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List the supported source store kinds",
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range source.Global().Kinds() {
			fmt.Printf("  %-6s %s\n", k.Kind, k.Description)
		}
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

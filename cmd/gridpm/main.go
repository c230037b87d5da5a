package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"gridpm/internal/app"
	"gridpm/internal/config"
	"gridpm/internal/dashboard"
	"gridpm/internal/db"
	"gridpm/internal/domain"
	"gridpm/internal/engine"
	"gridpm/internal/entropy"
	"gridpm/internal/migrate"
	"gridpm/internal/render"
	"gridpm/internal/repo"
	"gridpm/internal/server"
	"gridpm/internal/view"
)

func main() {
	root := newRootCmd(viper.New())
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// cli carries the settings every subcommand reads.
type cli struct {
	v *viper.Viper
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	c := &cli{v: v}
	root := &cobra.Command{
		Use:   "gridpm",
		Short: "Synthetic grid asset risk dashboard",
		Long: `gridpm generates synthetic power-grid asset records with failure probabilities,
classifies them into High/Medium/Low risk, and presents filtered views and fabricated
operational figures (trends, system status, pipeline performance, business
impact, crews, ROI).
Nothing is measured: every number is drawn from a random source. Pass --seed for
reproducible output.

Profiles: "detailed" (default, 20 records, thresholds 0.80/0.40) and "classic"
(50 records, thresholds 0.85/0.50). A gridpm.yml in the workspace overrides both.`,
		SilenceUsage: true,
	}
	v.SetEnvPrefix("GRIDPM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	pf := root.PersistentFlags()
	pf.StringP("workspace", "w", ".", "workspace directory")
	pf.String("config", "", "profile file (overrides the workspace gridpm.yml)")
	pf.String("profile", config.ProfileDetailed, "built-in profile when no file is found (detailed|classic)")
	pf.String("format", string(render.FormatTable), "output format (table|json|csv|markdown)")
	pf.Bool("json", false, "output JSON (same as --format json)")
	pf.String("actor-id", "local", "actor recorded in the export event log")
	for _, name := range []string{"workspace", "config", "profile", "format", "json", "actor-id"} {
		_ = v.BindPFlag(name, pf.Lookup(name))
	}

	root.AddCommand(
		c.generateCmd(),
		c.summaryCmd(),
		c.trendsCmd(),
		c.statusCmd(),
		c.pipelineCmd(),
		c.impactCmd(),
		c.crewsCmd(),
		c.ensembleCmd(),
		c.roiCmd(),
		c.configCmd(),
		c.exportCmd(),
		c.historyCmd(),
		c.serveCmd(),
	)
	return root
}

func (c *cli) profile() (*config.Profile, error) {
	p, _, err := app.ResolveProfile(c.v.GetString("workspace"), c.v.GetString("config"), c.v.GetString("profile"))
	return p, err
}

func (c *cli) renderer() (render.Renderer, error) {
	if c.v.GetBool("json") {
		return render.New(render.FormatJSON), nil
	}
	f, err := render.ParseFormat(c.v.GetString("format"))
	if err != nil {
		return nil, err
	}
	return render.New(f), nil
}

func (c *cli) print(w io.Writer, payload any, tables ...render.Table) error {
	r, err := c.renderer()
	if err != nil {
		return err
	}
	return r.Render(w, payload, tables...)
}

func seedOf(v uint64) *uint64 {
	if v == 0 {
		return nil
	}
	return &v
}

func (c *cli) batch(count int, seed uint64) (domain.Batch, error) {
	if count < 0 || count > config.MaxBatchSize {
		return domain.Batch{}, fmt.Errorf("count must be between 0 and %d, got %d", config.MaxBatchSize, count)
	}
	p, err := c.profile()
	if err != nil {
		return domain.Batch{}, err
	}
	eng, err := engine.NewSeeded(p, seedOf(seed))
	if err != nil {
		return domain.Batch{}, err
	}
	if count == 0 {
		count = p.BatchSize
	}
	return eng.Batch(count), nil
}

func (c *cli) generateCmd() *cobra.Command {
	var (
		count, top     int
		seed           uint64
		risk, typ, loc string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch and list it, highest failure probability first",
		RunE: func(cmd *cobra.Command, args []string) error {
			level, ok := domain.ParseRiskLevel(risk)
			if !ok {
				return fmt.Errorf("invalid --risk %q (want All, High, Medium or Low)", risk)
			}
			if top < 0 {
				return fmt.Errorf("--top must not be negative")
			}
			b, err := c.batch(count, seed)
			if err != nil {
				return err
			}
			b.Assets = view.Query{Risk: level, Type: typ, Location: loc, Limit: top}.Apply(b.Assets)
			title := fmt.Sprintf("%s batch %s", b.Profile, b.ID)
			return c.print(cmd.OutOrStdout(), b, render.AssetsTable(title, b.Assets))
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "records to generate (0 uses the profile batch size)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "reproducible seed (0 draws from ambient entropy)")
	cmd.Flags().StringVar(&risk, "risk", string(domain.RiskAll), "risk filter (All|High|Medium|Low)")
	cmd.Flags().StringVar(&typ, "type", "", "asset type substring (case-sensitive)")
	cmd.Flags().StringVar(&loc, "location", "", "location substring (case-sensitive)")
	cmd.Flags().IntVar(&top, "top", 0, "keep only the first N matches")
	return cmd
}

func (c *cli) summaryCmd() *cobra.Command {
	var (
		count int
		seed  uint64
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Generate a batch and print its risk counts and cost totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.batch(count, seed)
			if err != nil {
				return err
			}
			s, err := view.Summarize(b.Assets)
			if err != nil {
				return err
			}
			top := view.Top(view.FilterByRiskLevel(b.Assets, domain.RiskHigh), 5)
			return c.print(cmd.OutOrStdout(), s, render.SummaryTable(s), render.AssetsTable("Top high-risk assets", top))
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "records to generate (0 uses the profile batch size)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "reproducible seed (0 draws from ambient entropy)")
	return cmd
}

func (c *cli) trendsCmd() *cobra.Command {
	var (
		days int
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Daily high-risk asset count and model accuracy",
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := dashboard.Trend(entropy.For(seedOf(seed)), time.Now(), days)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), points, render.TrendTable(points))
		},
	}
	cmd.Flags().IntVar(&days, "days", dashboard.DefaultTrendDays, "days of history")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "reproducible seed (0 draws from ambient entropy)")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Live system status sidebar",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := dashboard.LiveStatus(entropy.For(seedOf(seed)), time.Now())
			return c.print(cmd.OutOrStdout(), s, render.StatusTable(s))
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "reproducible seed (0 draws from ambient entropy)")
	return cmd
}

func (c *cli) pipelineCmd() *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Live prediction pipeline performance cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := dashboard.PipelinePerformance(entropy.For(seedOf(seed)))
			return c.print(cmd.OutOrStdout(), p, render.PipelineTable(p))
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "reproducible seed (0 draws from ambient entropy)")
	return cmd
}

func (c *cli) impactCmd() *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Business impact cards, cost breakdown and per-type impact",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := dashboard.Impact(entropy.For(seedOf(seed)))
			return c.print(cmd.OutOrStdout(), b, render.ImpactTables(b)...)
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "reproducible seed (0 draws from ambient entropy)")
	return cmd
}

func (c *cli) crewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crews",
		Short: "Field crew roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			crews := dashboard.Crews()
			return c.print(cmd.OutOrStdout(), crews, render.CrewsTable(crews))
		},
	}
}

func (c *cli) ensembleCmd() *cobra.Command {
	w := dashboard.DefaultWeights
	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "Estimate ensemble accuracy and recall for a set of model weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			est, err := dashboard.EstimateEnsemble(w)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), est, render.EnsembleTable(est))
		},
	}
	cmd.Flags().Float64Var(&w.XGBoost, "xgboost", w.XGBoost, "XGBoost weight [0,1]")
	cmd.Flags().Float64Var(&w.TensorFlow, "tensorflow", w.TensorFlow, "TensorFlow weight [0,1]")
	cmd.Flags().Float64Var(&w.RandomForest, "random-forest", w.RandomForest, "Random Forest weight [0,1]")
	return cmd
}

func (c *cli) roiCmd() *cobra.Command {
	in := dashboard.DefaultROIInput
	cmd := &cobra.Command{
		Use:   "roi",
		Short: "Project cumulative savings against implementation cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := dashboard.ProjectROI(in)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), proj, render.ROITable(proj))
		},
	}
	cmd.Flags().IntVar(&in.ImplementationCostK, "cost", in.ImplementationCostK, "implementation cost in $K")
	cmd.Flags().IntVar(&in.MonthlySavingsK, "savings", in.MonthlySavingsK, "monthly savings in $K")
	cmd.Flags().IntVar(&in.Months, "months", in.Months, "months to project (1-120)")
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect and scaffold generator profiles",
		Long:  "A profile sets batch size, probability bounds, risk thresholds, cost range and the categorical values records draw from. Resolution order: --config, then <workspace>/gridpm.yml, then the built-in --profile.",
	}
	cfg.AddCommand(c.configShowCmd(), c.configValidateCmd(), c.configInitCmd())
	return cfg
}

func (c *cli) configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, src, err := app.ResolveProfile(c.v.GetString("workspace"), c.v.GetString("config"), c.v.GetString("profile"))
			if err != nil {
				return err
			}
			if c.v.GetBool("json") {
				return render.New(render.FormatJSON).Render(cmd.OutOrStdout(), p)
			}
			out, err := p.ToYAML()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", src, out)
			return nil
		},
	}
}

func (c *cli) configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.profile()
			if c.v.GetBool("json") {
				res := map[string]any{"ok": err == nil}
				if err != nil {
					res["error"] = err.Error()
				}
				if encErr := render.New(render.FormatJSON).Render(cmd.OutOrStdout(), res); encErr != nil {
					return encErr
				}
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config OK")
			return nil
		},
	}
}

func (c *cli) configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a built-in profile to <workspace>/gridpm.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(c.v.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			tmpl, err := config.GenerateDefault(c.v.GetString("profile"))
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(tmpl), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var (
		count int
		seed  uint64
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate a batch and store it in the workspace database",
		Long:  "Writes the batch to <workspace>/.gridpm/gridpm.db and appends a batch.exported event. The generator never reads this file back.",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.batch(count, seed)
			if err != nil {
				return err
			}
			return c.withDB(cmd.Context(), func(ctx context.Context, x engine.Exporter) error {
				info, err := x.Export(ctx, b, c.v.GetString("actor-id"))
				if err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), info, render.BatchesTable([]domain.BatchInfo{info}))
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "records to generate (0 uses the profile batch size)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "reproducible seed (0 draws from ambient entropy)")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	h := &cobra.Command{
		Use:   "history",
		Short: "Read exported batches back",
	}
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List exported batches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := c.withHistory(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListBatches(ctx, limit)
				if err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), items, render.BatchesTable(items))
			})
			if err != nil || found {
				return err
			}
			return c.printEmpty(cmd.OutOrStdout())
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "max batches")

	show := &cobra.Command{
		Use:   "show <batch-id>",
		Short: "Show one exported batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := c.withHistory(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				b, err := r.GetBatch(ctx, args[0])
				if errors.Is(err, repo.ErrNotFound) {
					return fmt.Errorf("batch %s not found", args[0])
				}
				if err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), b, render.AssetsTable(fmt.Sprintf("%s batch %s", b.Profile, b.ID), b.Assets))
			})
			if err == nil && !found {
				return fmt.Errorf("batch %s not found: no exports yet", args[0])
			}
			return err
		},
	}

	var (
		evtLimit int
		batchID  string
	)
	events := &cobra.Command{
		Use:   "events",
		Short: "Tail the export event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := c.withHistory(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				evts, err := r.LatestEvents(ctx, evtLimit, batchID, "")
				if err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), evts, render.EventsTable(evts))
			})
			if err != nil || found {
				return err
			}
			return c.printEmpty(cmd.OutOrStdout())
		},
	}
	events.Flags().IntVar(&evtLimit, "limit", 50, "max events")
	events.Flags().StringVar(&batchID, "batch", "", "only events for this batch")

	h.AddCommand(list, show, events)
	return h
}

func (c *cli) withDB(ctx context.Context, fn func(context.Context, engine.Exporter) error) error {
	conn, err := db.Open(db.Config{Workspace: c.v.GetString("workspace")})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, engine.NewExporter(conn))
}

// withHistory opens the export database for reading. It reports false
// without creating anything when the workspace has no exports yet.
func (c *cli) withHistory(ctx context.Context, fn func(context.Context, repo.Repo) error) (bool, error) {
	ws := c.v.GetString("workspace")
	if !db.Exists(ws) {
		return false, nil
	}
	conn, err := db.Open(db.Config{Workspace: ws})
	if err != nil {
		return true, err
	}
	defer conn.Close()
	if err := checkSchema(conn); err != nil {
		return true, err
	}
	return true, fn(ctx, repo.Repo{DB: conn})
}

func checkSchema(conn *sql.DB) error {
	current, err := migrate.Current(conn)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	latest, err := migrate.Latest()
	if err != nil {
		return err
	}
	if current != latest {
		return fmt.Errorf("export database is at schema version %d, this build expects %d (run gridpm export to upgrade)", current, latest)
	}
	return nil
}

func (c *cli) printEmpty(w io.Writer) error {
	if c.v.GetBool("json") || strings.EqualFold(c.v.GetString("format"), string(render.FormatJSON)) {
		return c.print(w, []any{})
	}
	_, err := fmt.Fprintln(w, "no exports yet")
	return err
}

func (c *cli) serveCmd() *cobra.Command {
	var (
		addr, basePath string
		quiet          bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.profile()
			if err != nil {
				return err
			}
			handler, err := server.New(server.Config{Profile: p, BasePath: basePath, LogRequests: !quiet})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Printf("serving gridpm API on http://%s%s (profile %s, OpenAPI at %s/openapi.json, Swagger UI at /docs)", addr, basePath, p.Name, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(sctx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "disable request logging")
	return cmd
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/events"
	"github.com/osvaldoandrade/imagegenie/internal/providers"
	"github.com/osvaldoandrade/imagegenie/internal/services"
	"github.com/osvaldoandrade/imagegenie/pkg/app"
	"github.com/osvaldoandrade/imagegenie/pkg/config"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"
	"github.com/osvaldoandrade/imagegenie/pkg/settings"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

// env carries the resolved configuration shared by every command.
type env struct {
	configPath string
	username   string
	verbose    bool
	cfg        *config.Config
	ui         *ui
}

func (e *env) open(opts ...app.ApplicationOption) (*app.Application, error) {
	var w io.Writer = io.Discard
	if e.verbose {
		w = os.Stderr
	}
	opts = append([]app.ApplicationOption{app.WithLogWriter(w)}, opts...)
	return app.NewApplication(e.cfg, opts...)
}

// userID resolves --user to a stored user, or the anonymous user when unset.
func (e *env) userID(ctx context.Context, a *app.Application) (string, error) {
	if strings.TrimSpace(e.username) == "" {
		return domain.AnonymousUserID, nil
	}
	u, err := a.Users.SetUsername(ctx, e.username)
	if err != nil {
		return "", err
	}
	return u.UserID, nil
}

func closeApp(a *app.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.Close(ctx)
}

func main() {
	ui := newUI()
	e := &env{
		configPath: getenv("IMAGEGENIE_CONFIG_PATH", ""),
		ui:         ui,
	}

	root := &cobra.Command{
		Use:   "imagegenie",
		Short: "ImageGenie CLI",
		Long:  "ImageGenie CLI for generating, comparing and ranking text-to-image models.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&e.configPath, "config", e.configPath, "Config file (YAML)")
	root.PersistentFlags().StringVar(&e.username, "user", getenv("IMAGEGENIE_USER", ""), "Username recorded with images and votes")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Write structured logs to stderr")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if !cmd.Flags().Changed("config") {
			if v := strings.TrimSpace(os.Getenv("IMAGEGENIE_CONFIG_PATH")); v != "" {
				e.configPath = v
			}
		}
		cfg, err := config.LoadConfigOptional(e.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.cfg = cfg
		return nil
	}

	root.AddCommand(
		generateCmd(e),
		modelsCmd(e),
		tokenCmd(e),
		userCmd(e),
		leaderboardCmd(e),
		statsCmd(e),
		exportCmd(e),
		galleryCmd(e),
		enhanceCmd(e),
		serveCmd(e),
		watchCmd(e),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err)
		os.Exit(1)
	}
}

func generateCmd(e *env) *cobra.Command {
	var (
		prompt     string
		modelList  string
		replicates int
		timeoutSec int
		arena      bool
		vote       bool
		order      string
		showLog    bool
	)

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate images from several models in parallel",
		Example: `imagegenie generate --prompt "a red fox in snow" --models "Flux Schnell,Imagen 3" --replicates 2 --vote`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ui := e.ui
			if strings.TrimSpace(prompt) == "" && len(args) > 0 {
				prompt = strings.Join(args, " ")
			}
			models, err := selectModels(e.cfg.Models, modelList)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := e.open()
			if err != nil {
				return err
			}
			defer closeApp(a)

			uid, err := e.userID(ctx, a)
			if err != nil {
				return err
			}
			req := domain.BatchRequest{
				Models:             models,
				Prompt:             prompt,
				ReplicatesPerModel: replicates,
				Anonymize:          arena,
				UserID:             uid,
			}
			if timeoutSec > 0 {
				req.TaskTimeout = time.Duration(timeoutSec) * time.Second
			}
			id, err := a.Generation.SubmitBatch(ctx, req)
			if err != nil {
				return err
			}
			st, err := a.Generation.PollStatus(id)
			if err != nil {
				return err
			}
			fmt.Printf("%s Batch %s: %d tasks\n", ui.info("[INFO]"), ui.dim(string(id)), st.Total)

			st, err = track(ctx, a.Generation, id, st.Total, ui)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", ui.ok("[OK]"), st.Summary())

			tasks, _ := a.Generation.Tasks(id)
			for _, t := range tasks {
				if t.Error != "" {
					fmt.Printf("  %s %s: %s\n", ui.warn("!"), t.Label, t.Error)
				} else if t.State != domain.StateCompleted {
					fmt.Printf("  %s %s: %s\n", ui.warn("!"), t.Label, t.State)
				}
			}
			items := a.Sink.Items()
			for i, rec := range items {
				path := rec.FilePath
				if path == "" {
					path = ui.dim("(not saved)")
				}
				fmt.Printf("  %s %-28s %dx%d  %s\n", ui.info(fmt.Sprintf("%d.", i+1)), rec.Label, rec.Width, rec.Height, path)
			}
			if showLog {
				fmt.Println()
				fmt.Println(ui.title("Activity"))
				for _, line := range a.Activity.Lines(0) {
					fmt.Println(ui.dim(line))
				}
			}

			if !vote && strings.TrimSpace(order) == "" {
				return nil
			}
			if len(items) < 2 {
				fmt.Println(ui.warn("[WARN]"), "Need at least two images to rank")
				return nil
			}
			keys := orderKeys(items, splitList(order))
			if len(keys) == 0 {
				keys, err = promptOrder(items)
				if err != nil {
					return err
				}
			}
			resolved, err := services.ResolveOrder(items, keys)
			if err != nil {
				return err
			}
			session, err := a.Rankings.RecordSession(context.WithoutCancel(ctx), uid, prompt, a.Rankings.BuildRanking(resolved))
			if err != nil {
				return err
			}
			fmt.Printf("%s Ranking saved (session %s)\n", ui.ok("[OK]"), ui.dim(session.SessionID))
			if arena {
				for i, rec := range resolved {
					fmt.Printf("  %d. %s %s %s\n", i+1, rec.Label, ui.dim("was"), rec.ModelName)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Text prompt")
	cmd.Flags().StringVarP(&modelList, "models", "m", "", "Comma-separated model names (default: all)")
	cmd.Flags().IntVarP(&replicates, "replicates", "n", 1, "Images per model")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 0, "Per-image timeout in seconds (default from config)")
	cmd.Flags().BoolVar(&arena, "arena", false, "Hide model names behind \"Image N\" labels")
	cmd.Flags().BoolVar(&vote, "vote", false, "Rank the results interactively when done")
	cmd.Flags().StringVar(&order, "order", "", "Comma-separated ranking, best first (names or labels)")
	cmd.Flags().BoolVar(&showLog, "log", false, "Print the activity log when done")
	return cmd
}

// track polls the batch every second until it resolves. An interrupt cancels
// the batch and waits for it to settle.
func track(ctx context.Context, gen services.GenerationService, id domain.BatchID, total int, ui *ui) (domain.BatchStatus, error) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Generating"),
		progressbar.OptionSetWidth(18),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		st, err := gen.PollStatus(id)
		if err != nil {
			return domain.BatchStatus{}, err
		}
		_ = bar.Set(st.Total - st.Active())
		if st.Resolved() {
			_ = bar.Finish()
			return settle(gen, id)
		}
		select {
		case <-ctx.Done():
			_ = bar.Finish()
			fmt.Println(ui.warn("[WARN]"), "Canceling...")
			if err := gen.CancelBatch(id); err != nil {
				return domain.BatchStatus{}, err
			}
			return settle(gen, id)
		case <-ticker.C:
		}
	}
}

// settle blocks until the batch has published its resolution.
func settle(gen services.GenerationService, id domain.BatchID) (domain.BatchStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return gen.Wait(ctx, id)
}

func promptOrder(items []domain.GeneratedImage) ([]string, error) {
	fmt.Println("Rank the images, best first, as a comma-separated list of numbers or labels:")
	for i, rec := range items {
		fmt.Printf("  %d. %s\n", i+1, rec.Label)
	}
	fmt.Print("> ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return orderKeys(items, splitList(line)), nil
}

// orderKeys maps 1-based positions to labels and passes anything else through.
func orderKeys(items []domain.GeneratedImage, keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		var n int
		if _, err := fmt.Sscanf(k, "%d", &n); err == nil && fmt.Sprint(n) == k && n >= 1 && n <= len(items) {
			out = append(out, items[n-1].Label)
			continue
		}
		out = append(out, k)
	}
	return out
}

func selectModels(catalog []domain.Model, list string) ([]domain.Model, error) {
	names := splitList(list)
	if len(names) == 0 {
		return catalog, nil
	}
	out := make([]domain.Model, 0, len(names))
	for _, n := range names {
		m, ok := domain.FindModel(catalog, n)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModel, n)
		}
		out = append(out, m)
	}
	return out, nil
}

func modelsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the model catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, m := range e.cfg.Models {
				fmt.Printf("%s %-22s %s\n", e.ui.info("•"), m.Name, e.ui.dim(m.ID))
			}
			return nil
		},
	}
}

func tokenCmd(e *env) *cobra.Command {
	set := &cobra.Command{
		Use:   "set [token]",
		Short: "Save the Replicate API token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				t, err := promptSecret("Replicate API token")
				if err != nil {
					return err
				}
				token = t
			}
			store := settings.NewStore(e.cfg.SettingsFile())
			if err := store.SaveToken(token); err != nil {
				return err
			}
			fmt.Printf("%s Token saved to %s (%s)\n", e.ui.ok("[OK]"), store.Path(), maskToken(token))
			return nil
		},
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the active token (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := settings.NewStore(e.cfg.SettingsFile())
			token := firstNonEmpty(store.Token(), e.cfg.APIToken)
			fmt.Printf("%s Token: %s\n", e.ui.info("•"), maskToken(token))
			return nil
		},
	}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the backend API token",
	}
	cmd.AddCommand(set, show)
	return cmd
}

func userCmd(e *env) *cobra.Command {
	set := &cobra.Command{
		Use:   "set <username>",
		Short: "Register a username (or look it up)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			defer closeApp(a)
			u, err := a.Users.SetUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s %s %s\n", e.ui.ok("[OK]"), u.Username, e.ui.dim(u.UserID))
			return nil
		},
	}
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(set)
	return cmd
}

func leaderboardCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the model leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			defer closeApp(a)
			board, err := a.Rankings.ComputeLeaderboard(cmd.Context())
			if err != nil {
				return err
			}
			if len(board) == 0 {
				fmt.Println(e.ui.dim("No rankings yet"))
				return nil
			}
			fmt.Printf("%-4s %-24s %6s %6s %8s %7s\n", "#", "Model", "Votes", "1st", "AvgRank", "Score")
			for i, b := range board {
				fmt.Printf("%-4d %-24s %6d %6d %8.2f %7.2f\n", i+1, b.ModelName, b.TotalVotes, b.FirstPlaces, b.AvgRank, b.Score)
			}
			return nil
		},
	}
}

func statsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show voting statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			defer closeApp(a)
			st, err := a.Rankings.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d | %s: %d | %s: %d\n",
				e.ui.info("Sessions"), st.TotalSessions,
				e.ui.info("Users"), st.UniqueUsers,
				e.ui.info("Rankings"), st.TotalRankings)
			fmt.Println()
			fmt.Println(e.ui.title("Most voted"))
			for _, m := range st.MostVoted {
				fmt.Printf("  %-24s %d votes\n", m.ModelName, m.Votes)
			}
			fmt.Println(e.ui.title("Top ranked"))
			for _, m := range st.TopRanked {
				fmt.Printf("  %-24s mean %.2f  median %.1f  sd %.2f\n", m.ModelName, m.MeanRank, m.MedianRank, m.StdDevRank)
			}
			return nil
		},
	}
}

func exportCmd(e *env) *cobra.Command {
	var (
		format string
		dir    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ranking history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			defer closeApp(a)
			if dir == "" {
				dir = e.cfg.OutputDir
			}
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Exporting statistics..."
			spin.Start()
			paths, err := a.Rankings.Export(cmd.Context(), dir, format)
			spin.Stop()
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Printf("%s %s\n", e.ui.ok("[OK]"), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv|xlsx")
	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default: configured output dir)")
	return cmd
}

func galleryCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "List previously generated images",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			defer closeApp(a)
			items, err := a.Gallery.List(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}
			for _, it := range items {
				mark := e.ui.ok("•")
				if !it.Indexed {
					mark = e.ui.dim("•")
				}
				fmt.Printf("%s %s %-20s %s\n", mark, it.CreatedAt.Local().Format("2006-01-02 15:04"), it.ModelName, filepath.Base(it.FilePath))
				if it.Prompt != "" {
					fmt.Printf("  %s\n", e.ui.dim(it.Prompt))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum images to list (0 = all)")
	return cmd
}

func enhanceCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "enhance <prompt>",
		Short:   "Rewrite a prompt into a richer one",
		Example: `imagegenie enhance "a lighthouse at dusk"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			defer closeApp(a)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Enhancing prompt..."
			spin.Start()
			out, err := a.Enhancer.Enhance(cmd.Context(), strings.Join(args, " "))
			spin.Stop()
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func serveCmd(e *env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				e.cfg.ListenAddr = addr
			}
			e.verbose = true
			a, err := e.open()
			if err != nil {
				return err
			}
			app.SetupMappings(a)
			srv := a.Server()

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()
			fmt.Printf("%s Listening on %s\n", e.ui.info("[INFO]"), srv.Addr)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			select {
			case <-ctx.Done():
			case err := <-errCh:
				closeApp(a)
				return err
			}

			fmt.Println(e.ui.warn("[WARN]"), "Stopping...")
			sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer scancel()
			_ = srv.Shutdown(sctx)
			return a.Close(sctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func watchCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow batch events relayed by a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(e.cfg.RedisAddr) == "" {
				return errors.New("redisAddr is required to watch a running server")
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rdb := providers.NewRedisProvider(e.cfg.RedisAddr, e.cfg.RedisPassword)
			defer rdb.Close()
			if err := providers.PingRedis(ctx, rdb); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			fmt.Printf("%s Watching %s\n", e.ui.info("[INFO]"), e.cfg.RelayChannel)
			return events.NewRelay(rdb, e.cfg.RelayChannel, nil).Listen(ctx, func(ev domain.Event) {
				fmt.Println(formatEvent(e.ui, ev))
			})
		},
	}
}

func formatEvent(ui *ui, ev domain.Event) string {
	ts := ui.dim(ev.At.Local().Format("15:04:05"))
	switch ev.Type {
	case domain.EventTaskFinished:
		mark := ui.ok("[OK]")
		switch {
		case ev.Message != "":
			mark = ui.err("[FAIL]")
		case ev.State != domain.StateCompleted:
			mark = ui.warn("[" + strings.ToUpper(string(ev.State)) + "]")
		}
		line := fmt.Sprintf("%s %s %s", ts, mark, ev.Task)
		if ev.Message != "" {
			line += " " + ui.dim(ev.Message)
		}
		return line
	case domain.EventSinkChanged:
		return fmt.Sprintf("%s %s image %d/%d", ts, ui.info("[CAROUSEL]"), ev.Index+1, ev.Length)
	case domain.EventBatchResolved:
		return fmt.Sprintf("%s %s %s", ts, ui.title("[DONE]"), ev.Message)
	}
	return fmt.Sprintf("%s %s", ts, ev.Type)
}

func helpTemplate(ui *ui) string {
	title := ui.title("imagegenie")
	return fmt.Sprintf(`%s - compare text-to-image models side by side

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Environment:
  IMAGEGENIE_CONFIG_PATH, REPLICATE_API_TOKEN, IMAGEGENIE_OUTPUT_DIR (a .env file is loaded if present)

Examples:
  imagegenie token set
  imagegenie generate -p "a red fox in snow" -m "Flux Schnell,Imagen 3" -n 2 --vote
  imagegenie generate -p "a glass city" --arena --order "Image 3,Image 1,Image 2"
  imagegenie leaderboard
  imagegenie watch
  imagegenie export --format xlsx

`, title)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	b, err := termReadPassword()
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func termReadPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}
		return []byte(strings.TrimSpace(line)), err
	}
	return term.ReadPassword(fd)
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func maskToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "<unset>"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + v[len(v)-4:]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

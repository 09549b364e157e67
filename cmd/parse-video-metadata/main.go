package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quidome/parse-video-metadata/pkg/analyze"
	"github.com/quidome/parse-video-metadata/pkg/attachment"
	"github.com/quidome/parse-video-metadata/pkg/config"
	"github.com/quidome/parse-video-metadata/pkg/createdat"
	"github.com/quidome/parse-video-metadata/pkg/logging"
	"github.com/quidome/parse-video-metadata/pkg/mediameta"
	"github.com/quidome/parse-video-metadata/pkg/scan"
)

const version = "0.1.0"

type options struct {
	verbose    bool
	configPath string
	logLevel   string
}

// env is the per-invocation state shared by subcommands.
type env struct {
	cfg  config.Config
	log  zerolog.Logger
	scan scan.Options
}

func (o *options) load(cmd *cobra.Command) (env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return env{}, err
	}

	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	} else if o.verbose {
		level = "debug"
	}

	scanOpts := scan.DefaultOptions()
	if len(cfg.Scan.VideoExtensions) > 0 {
		scanOpts.VideoExtensions = cfg.Scan.VideoExtensions
	}
	if len(cfg.Scan.PhotoExtensions) > 0 {
		scanOpts.PhotoExtensions = cfg.Scan.PhotoExtensions
	}

	return env{
		cfg:  cfg,
		log:  logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format),
		scan: scanOpts,
	}, nil
}

// analyzer reads the container first and falls back to a stored analysis dump.
func (e env) analyzer(root string) analyze.Analyzer {
	return analyze.Chain{
		analyze.ISOBMFF{},
		analyze.Sidecar{FS: os.DirFS(root), Suffix: e.cfg.Scan.SidecarSuffix},
	}
}

func main() {
	cmd := newRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "parse-video-metadata",
		Short:   "Extract creation timestamps from video metadata",
		Long:    "parse-video-metadata reads media-analysis output for ASF, Matroska, QuickTime and MP4 files and records the creation timestamp of uploaded videos.",
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Parse Video Metadata CLI")
			cmd.Printf("Version: %s\n", version)
			if opts.verbose {
				cmd.Println("Verbose mode: enabled")
			}
			cmd.Println("")
			cmd.Println("Use --help to see available commands and options")
		},
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a TOML config file (default "+config.DefaultConfigPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newResolveCmd(opts))
	rootCmd.AddCommand(newProbeCmd(opts))
	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newUploadCmd(opts))
	rootCmd.AddCommand(newShowCmd(opts))

	return rootCmd
}

type resolution struct {
	Path             string           `json:"path"`
	FileFormat       mediameta.Format `json:"fileformat,omitempty"`
	CreatedTimestamp *int64           `json:"created_timestamp"`
}

func (r resolution) String() string {
	if r.CreatedTimestamp == nil {
		return r.Path + "\tabsent"
	}
	return r.Path + "\t" + strconv.FormatInt(*r.CreatedTimestamp, 10)
}

func newResolution(path string, m mediameta.Metadata) resolution {
	r := resolution{Path: path, FileFormat: m.FileFormat}
	if sec, ok := createdat.Resolve(m); ok {
		r.CreatedTimestamp = &sec
	}
	return r
}

func printResolutions(cmd *cobra.Command, results []resolution, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		cmd.Println(r.String())
	}
	return nil
}

func newResolveCmd(opts *options) *cobra.Command {
	var asJSON bool

	resolveCmd := &cobra.Command{
		Use:   "resolve [analysis.json]...",
		Short: "Resolve creation timestamps from stored analysis output",
		Long:  "Read media-analysis JSON dumps and print the creation timestamp (UNIX seconds) of each, or \"absent\" when none can be determined.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}

			results := make([]resolution, 0, len(args))
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				m, err := mediameta.Decode(f)
				_ = f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				r := newResolution(path, m)
				e.log.Debug().Str("path", path).Str("format", string(m.FileFormat)).Bool("found", r.CreatedTimestamp != nil).Msg("resolved")
				results = append(results, r)
			}
			return printResolutions(cmd, results, asJSON)
		},
	}

	resolveCmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	return resolveCmd
}

func newProbeCmd(opts *options) *cobra.Command {
	var asJSON bool

	probeCmd := &cobra.Command{
		Use:   "probe [video]...",
		Short: "Analyze video files and resolve their creation timestamps",
		Long:  "Read MP4/QuickTime headers directly, or a stored analysis dump next to the file, and print the creation timestamp.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}

			results := make([]resolution, 0, len(args))
			for _, path := range args {
				m, err := probe(cmd.Context(), e, path)
				if err != nil {
					e.log.Warn().Err(err).Str("path", path).Msg("probe")
				}
				results = append(results, newResolution(path, m))
			}
			return printResolutions(cmd, results, asJSON)
		},
	}

	probeCmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	return probeCmd
}

func probe(ctx context.Context, e env, path string) (mediameta.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return mediameta.Metadata{}, err
	}
	defer f.Close()

	return e.analyzer(filepath.Dir(path)).Analyze(ctx, filepath.Base(path), f)
}

type scanRecord struct {
	scan.Record
	FileFormat       mediameta.Format `json:"fileformat,omitempty"`
	CreatedTimestamp *int64           `json:"created_timestamp,omitempty"`
}

func newScanCmd(opts *options) *cobra.Command {
	var maxDepth int
	var asJSON bool
	var timestamps bool

	scanCmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a directory for media files",
		Long:  "Scan a directory and print all media files found (relative to the scan root), optionally with their creation timestamps.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory := args[0]

			e, err := opts.load(cmd)
			if err != nil {
				return err
			}

			scanOpts := e.scan
			scanOpts.MaxDepth = maxDepth

			fsys := os.DirFS(directory)
			records, err := scan.ScanRecords(fsys, ".", scanOpts)
			if err != nil {
				return err
			}

			detOpts := createdat.Options{
				Scan:  &scanOpts,
				Video: createdat.Analysis(e.analyzer(directory)),
			}

			out := make([]scanRecord, 0, len(records))
			for _, r := range records {
				sr := scanRecord{Record: r}
				if timestamps || asJSON {
					res, err := createdat.Determine(cmd.Context(), fsys, r.Path, detOpts)
					if err != nil {
						return err
					}
					sr.FileFormat = res.Format
					if res.Found() {
						sec := res.CreatedAt.Unix()
						sr.CreatedTimestamp = &sec
					}
				}
				out = append(out, sr)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			for _, r := range out {
				switch {
				case !timestamps:
					cmd.Println(r.Path)
				case r.CreatedTimestamp == nil:
					cmd.Printf("%s\t%s\tabsent\n", r.Path, r.Kind)
				default:
					cmd.Printf("%s\t%s\t%d\n", r.Path, r.Kind, *r.CreatedTimestamp)
				}
			}

			e.log.Debug().Int("count", len(out)).Msg("found media files")

			return nil
		},
	}

	scanCmd.Flags().IntVar(&maxDepth, "max-depth", -1, "maximum recursion depth (0 = no recursion)")
	scanCmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	scanCmd.Flags().BoolVarP(&timestamps, "timestamps", "t", false, "print kind and creation timestamp")

	return scanCmd
}

func newUploadCmd(opts *options) *cobra.Command {
	var root string
	var dbPath string
	var metricsFile string
	var createdTimestamp int64

	uploadCmd := &cobra.Command{
		Use:   "upload [file]...",
		Short: "Register files as attachments and record their creation timestamps",
		Long:  "Run each file through the attachment metadata hooks and store the resulting record. An existing creation timestamp (--created-timestamp) is never replaced.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = e.cfg.Store.Path
			}

			store, err := attachment.OpenStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			files := os.DirFS(root)
			metrics := attachment.NewMetrics()

			var events attachment.Dispatcher
			events.On(attachment.EventMetadataGenerated, attachment.ImageTimestampHook(files, e.log))
			events.On(attachment.EventMetadataGenerated, attachment.VideoTimestampHook(files, e.analyzer(root), e.log, metrics))

			pipeline := attachment.NewPipeline(files, store, &events, e.scan, e.log)

			var uploadOpts []attachment.UploadOption
			if createdTimestamp != 0 {
				uploadOpts = append(uploadOpts, attachment.WithCreatedTimestamp(createdTimestamp))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, arg := range args {
				rel, err := relativeTo(root, arg)
				if err != nil {
					return err
				}
				rec, err := pipeline.Upload(cmd.Context(), rel, uploadOpts...)
				if err != nil {
					return fmt.Errorf("upload %s: %w", arg, err)
				}
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}

			if metricsFile != "" {
				if err := metrics.WriteTextfile(metricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			return nil
		},
	}

	uploadCmd.Flags().StringVar(&root, "root", ".", "directory uploads are resolved against")
	uploadCmd.Flags().StringVar(&dbPath, "db", "", "attachment database (default from config)")
	uploadCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write resolution counters in Prometheus text format")
	uploadCmd.Flags().Int64Var(&createdTimestamp, "created-timestamp", 0, "existing creation timestamp (UNIX seconds) to keep")

	return uploadCmd
}

// relativeTo returns path relative to root in slash form for use with os.DirFS.
func relativeTo(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}

func newShowCmd(opts *options) *cobra.Command {
	var dbPath string

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Print stored attachment records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = e.cfg.Store.Path
			}

			store, err := attachment.OpenStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			var records []attachment.Record
			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid id %q: %w", args[0], err)
				}
				rec, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				records = append(records, rec)
			} else {
				records, err = store.List(cmd.Context())
				if err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, rec := range records {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			return nil
		},
	}

	showCmd.Flags().StringVar(&dbPath, "db", "", "attachment database (default from config)")

	return showCmd
}

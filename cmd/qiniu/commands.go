package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tendant/qiniu-upload/internal/devserver"
	"github.com/tendant/qiniu-upload/pkg/qiniu/config"
	"github.com/tendant/qiniu-upload/pkg/qiniu/token"
	"github.com/tendant/qiniu-upload/pkg/qiniu/upload"
)

// NewUploadCommand creates the upload command
func NewUploadCommand() *cobra.Command {
	var bucket, domain, endpoint string
	var concurrency int
	var uuidKeys bool

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files and print their resource paths",
		Long: `Upload one or more local files. Each successful upload prints its
resource path (domain/key, or the bare key without a domain) on its own line.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme := ""
			if uuidKeys {
				scheme = config.KeySchemeUUID
			}

			cfg, err := loadConfig(cmd,
				config.WithBucket(bucket),
				config.WithDomain(domain),
				config.WithEndpoint(endpoint),
				config.WithConcurrency(concurrency),
				config.WithKeyScheme(scheme),
			)
			if err != nil {
				return err
			}

			for _, path := range args {
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("file does not exist: %s", path)
				}
			}

			logger := newLogger(cmd)
			signer, err := cfg.BuildSigner(logger)
			if err != nil {
				return err
			}
			client := cfg.BuildClient(signer, logger)

			sources := make([]upload.Source, len(args))
			for i, path := range args {
				sources[i] = upload.File(path)
			}

			results, err := client.UploadAll(cmd.Context(), sources, cfg.Concurrency)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}

			for _, res := range results {
				printLine(cmd.OutOrStdout(), res.Resource)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "target bucket (overrides QINIU_BUCKET)")
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "domain prefixed to resource paths (overrides QINIU_DOMAIN)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "upload endpoint (overrides QINIU_UPLOAD_URL)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "parallel uploads (overrides QINIU_CONCURRENCY)")
	cmd.Flags().BoolVar(&uuidKeys, "uuid-keys", false, "use random UUID object keys instead of timestamps")

	return cmd
}

// NewTokenCommand creates the token command
func NewTokenCommand() *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an upload token for the bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, config.WithBucket(bucket))
			if err != nil {
				return err
			}

			signer, err := cfg.BuildSigner(newLogger(cmd))
			if err != nil {
				return err
			}

			tok, err := signer.Token()
			if err != nil {
				return err
			}

			printLine(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "bucket the token is scoped to (overrides QINIU_BUCKET)")

	return cmd
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var addr, storageURL string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local upload server for development",
		Long: `Run a local server that accepts the same multipart uploads as the
storage service. Tokens are checked against QINIU_ACCESS_KEY and
QINIU_SECRET_KEY; when QINIU_BUCKET is set only tokens scoped to it are
accepted. Stored files are served back at GET /<key>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, config.WithServer(addr, storageURL))
			if err != nil {
				return err
			}

			if cfg.AccessKey == "" {
				return token.ErrMissingAccessKey
			}
			if cfg.SecretKey == "" {
				return token.ErrMissingSecretKey
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := devserver.OpenStore(ctx, cfg.Server.StorageURL)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}

			logger := newLogger(cmd)
			srv := devserver.New(store,
				token.StaticKeys(map[string]string{cfg.AccessKey: cfg.SecretKey}),
				devserver.WithBucket(cfg.Bucket),
				devserver.WithKeyGenerator(cfg.KeyGenerator()),
				devserver.WithLogger(logger),
			)

			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides QINIU_SERVER_ADDR)")
	cmd.Flags().StringVar(&storageURL, "storage", "", "storage URL (overrides QINIU_STORAGE_URL)")

	return cmd
}

// NewEnvCommand creates the env command
func NewEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List supported environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := config.EnvDescription()
			if err != nil {
				return err
			}
			printLine(cmd.OutOrStdout(), desc)
			return nil
		},
	}
}

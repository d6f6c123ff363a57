package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/tamirms/blobhash"
	"github.com/tamirms/blobhash/blobstore"
	"github.com/tamirms/blobhash/blobstore/minio"
	"github.com/tamirms/blobhash/blobstore/s3"
)

// openStore resolves a store URL:
//
//	file:///var/lib/tables (or a plain directory path)
//	s3://bucket/prefix
//	minio://host:port/bucket/prefix
//
// MinIO credentials come from MINIO_ACCESS_KEY and MINIO_SECRET_KEY; set
// MINIO_SECURE=true for TLS. S3 uses the default AWS configuration chain.
func openStore(ctx context.Context, raw string) (blobstore.Store, error) {
	if !strings.Contains(raw, "://") {
		return blobstore.NewLocalStore(raw), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("store url: %w", err)
	}
	prefix := strings.Trim(u.Path, "/")

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Host + u.Path), nil
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("store url %q: missing bucket", raw)
		}
		return s3.New(ctx, u.Host, s3.WithPrefix(prefix))
	case "minio":
		bucket, sub, _ := strings.Cut(prefix, "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("store url %q: want minio://host/bucket[/prefix]", raw)
		}
		client, err := miniogo.New(u.Host, &miniogo.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
			Secure: os.Getenv("MINIO_SECURE") == "true",
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return minio.NewStore(client, bucket, sub), nil
	default:
		return nil, fmt.Errorf("store url %q: unsupported scheme %q", raw, u.Scheme)
	}
}

type transferFlags struct {
	store string
	name  string
	out   string
}

func newPushCmd(a *app) *cobra.Command {
	var f transferFlags
	cmd := &cobra.Command{
		Use:   "push <file> --store URL --name NAME",
		Short: "Publish a blob file to a store",
		Long: `The push command re-encodes a blob file with the configured compression
and stores it under NAME.

Example:
  blobhash push table.blob --store s3://my-bucket/tables --name users.blob
  blobhash push table.blob --store minio://localhost:9000/tables --name users.blob`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPush(cmd.Context(), cmd.OutOrStdout(), args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.store, "store", "", "Store URL")
	cmd.Flags().StringVar(&f.name, "name", "", "Object name (defaults to the file name)")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func (a *app) runPush(ctx context.Context, w io.Writer, path string, f transferFlags) error {
	if f.name == "" {
		f.name = path[strings.LastIndexAny(path, `/\`)+1:]
	}
	store, err := openStore(ctx, f.store)
	if err != nil {
		return err
	}
	blob, err := blobhash.Open(path, blobhash.WithBlobLogger(a.log))
	if err != nil {
		return err
	}
	defer blob.Close()
	if err := blob.Verify(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := blobstore.Publish(ctx, store, f.name, blob, blobhash.WithCompression(a.cfg.compression())); err != nil {
		return err
	}
	a.log.Info("pushed", "file", path, "store", f.store, "name", f.name)
	fmt.Fprintf(w, "pushed %s to %s as %s\n", path, f.store, f.name)
	return nil
}

func newPullCmd(a *app) *cobra.Command {
	var f transferFlags
	cmd := &cobra.Command{
		Use:   "pull --store URL --name NAME --out FILE",
		Short: "Fetch a blob from a store into a local file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPull(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVar(&f.store, "store", "", "Store URL")
	cmd.Flags().StringVar(&f.name, "name", "", "Object name")
	cmd.Flags().StringVar(&f.out, "out", "", "Blob file to write")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) runPull(ctx context.Context, w io.Writer, f transferFlags) error {
	store, err := openStore(ctx, f.store)
	if err != nil {
		return err
	}
	blob, err := blobstore.Fetch(ctx, store, f.name, blobhash.WithBlobLogger(a.log))
	if err != nil {
		return err
	}
	defer blob.Close()
	if err := blob.Verify(); err != nil {
		return fmt.Errorf("%s: %w", f.name, err)
	}

	// Keep the stored compression.
	if err := blob.WriteFile(f.out, blobhash.WithCompression(blob.Compression())); err != nil {
		return err
	}
	fmt.Fprintf(w, "pulled %s from %s to %s\n", f.name, f.store, f.out)
	return nil
}

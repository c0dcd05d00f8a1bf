package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/cacheproxy/pkg/cli"
	"mercator-hq/cacheproxy/pkg/config"
	"mercator-hq/cacheproxy/pkg/storage"
)

type storedFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type fileListing struct {
	Backend string       `json:"backend"`
	Files   []storedFile `json:"files"`
}

func (l fileListing) String() string {
	if len(l.Files) == 0 {
		return fmt.Sprintf("no files stored (%s)", l.Backend)
	}
	var b strings.Builder
	for i, f := range l.Files {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%12d  %s", f.Size, f.Name)
	}
	return b.String()
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List stored files",
	Long: `List the files held by the configured storage backend with their sizes,
the same names GET /list returns from a running server.`,
	RunE: listFiles,
}

func init() {
	rootCmd.AddCommand(filesCmd)
}

func listFiles(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(output)
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfigOrDefaults(cfgFile)
	if err != nil {
		return err
	}

	backend, err := storage.Open(storageOptions(&cfg.Storage))
	if err != nil {
		return cli.NewCommandError("files", err)
	}
	defer backend.Close()

	ctx := cmd.Context()
	names, err := backend.List(ctx)
	if err != nil {
		return cli.NewCommandError("files", err)
	}

	listing := fileListing{Backend: cfg.Storage.Backend, Files: make([]storedFile, 0, len(names))}
	for _, name := range names {
		listing.Files = append(listing.Files, storedFile{Name: name, Size: backend.Size(ctx, name)})
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), listing)
}

func storageOptions(cfg *config.StorageConfig) storage.Options {
	return storage.Options{
		Kind:         cfg.Backend,
		Directory:    cfg.Directory,
		SQLitePath:   cfg.SQLite.Path,
		SQLiteDriver: cfg.SQLite.Driver,
		BusyTimeout:  cfg.SQLite.BusyTimeout,
	}
}

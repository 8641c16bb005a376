package cmd

import (
	"fmt"
	"io"

	"github.com/CyrilBrulebois/apt-webindex/pkg/airutil"
	"github.com/CyrilBrulebois/apt-webindex/pkg/apt"
	"github.com/CyrilBrulebois/apt-webindex/pkg/webindex"
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "scan a repository and write the index page",
	RunE:  generate,
}

const (
	flagRoot   = "root"
	flagOutput = "output"
	flagTitle  = "title"
)

func init() {
	generateCmd.Flags().StringP(flagRoot, "r", ".", "path to the repository root (the directory containing dists/ and pool/)")
	generateCmd.Flags().StringP(flagOutput, "o", "-", "file to write the page to ('-' for stdout)")
	generateCmd.Flags().String(flagTitle, webindex.DefaultTitle, "page title")

	_ = generateCmd.MarkFlagDirname(flagRoot)
}

func generate(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	root, _ := cmd.Flags().GetString(flagRoot)
	output, _ := cmd.Flags().GetString(flagOutput)
	title, _ := cmd.Flags().GetString(flagTitle)
	root = airutil.ExpandEnv(root)
	output = airutil.ExpandEnv(output)

	fs := afero.NewOsFs()

	locator := apt.NewLocator(fs, root)
	sources, err := locator.Locate(cmd.Context())
	if err != nil {
		return fmt.Errorf("locating package indices: %w", err)
	}
	log.V(1).Info("located package indices", "count", len(sources))

	builder := apt.NewCatalogBuilder()
	for _, src := range sources {
		if err := readSource(cmd, builder, src); err != nil {
			log.Info("skipping unreadable index", "suite", src.Suite, "arch", src.Architecture, "error", err)
		}
	}
	catalog := builder.Build(cmd.Context())

	renderer, err := webindex.NewRenderer(fs, root, title)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if output != "-" {
		f, err := fs.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return renderer.Render(cmd.Context(), out, catalog)
}

func readSource(cmd *cobra.Command, builder *apt.CatalogBuilder, src apt.Source) error {
	f, err := src.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := apt.ParseRecords(cmd.Context(), f)
	if err != nil {
		return err
	}
	for _, rec := range records {
		builder.Add(cmd.Context(), src, rec)
	}
	return nil
}

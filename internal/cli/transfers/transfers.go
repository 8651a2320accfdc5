package transfers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/constants"
	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/transfer"
)

type ExportCmd struct {
	Output string `short:"o" help:"File to write. Defaults to a timestamped file in the export archive; '-' writes to stdout."`
	Format string `short:"f" help:"Output format: json or yaml. Inferred from --output when omitted."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	format, err := c.format()
	if err != nil {
		return err
	}
	doc := ctx.Sync.Export()

	switch c.Output {
	case "-":
		return transfer.Encode(ctx.Out, doc, format)
	case "":
		path, err := transfer.NewArchive(ctx.Config.Dir()).Save(doc, format)
		if err != nil {
			return err
		}
		c.report(ctx, doc, path)
		return nil
	default:
		if err := transfer.WriteFile(c.Output, doc, format); err != nil {
			return err
		}
		c.report(ctx, doc, c.Output)
		return nil
	}
}

func (c *ExportCmd) format() (transfer.Format, error) {
	if c.Format != "" {
		return transfer.ParseFormat(c.Format)
	}
	if ext := filepath.Ext(c.Output); c.Output != "" && c.Output != "-" && ext != "" {
		return transfer.ParseFormat(ext)
	}
	return transfer.FormatJSON, nil
}

func (c *ExportCmd) report(ctx *cli.Context, doc transfer.Document, path string) {
	logger.Info("Exported data", "path", path)
	ctx.Printf("✓ Exported %d habits, %d tasks and %d habit entries to %s\n",
		len(doc.Habits), len(doc.Tasks), len(doc.HabitEntries), path)
}

type ImportCmd struct {
	Path   string `arg:"" optional:"" help:"Export file to load." type:"existingfile"`
	Latest bool   `help:"Load the most recent file from the export archive."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	path, err := c.resolvePath(ctx)
	if err != nil {
		return err
	}

	doc, err := transfer.ReadFile(path)
	if err != nil {
		return err
	}

	// a signed-in session is loaded first so the import replaces it;
	// without one the document is still validated and summarised
	if err := ctx.Load(); err != nil && !errors.Is(err, apperrors.ErrNotAuthenticated) && !errors.Is(err, apperrors.ErrNotConfigured) {
		return err
	}
	if err := ctx.Sync.Import(doc); err != nil {
		return err
	}

	s := ctx.State()
	ctx.Printf("✓ Loaded %d habits, %d tasks and %d habit entries from %s\n",
		len(s.Habits), len(s.Tasks), len(s.Entries), path)
	if !doc.ExportDate.IsZero() {
		ctx.Printf("  Exported on %s\n", doc.ExportDate.In(ctx.Location()).Format(constants.DisplayDateFormat))
	}
	ctx.Println("  Nothing was written to the backend. Use 'habitflow tui --import " + quote(path) + "' to browse it.")
	return nil
}

func (c *ImportCmd) resolvePath(ctx *cli.Context) (string, error) {
	if c.Path != "" && c.Latest {
		return "", fmt.Errorf("use either a path or --latest, not both")
	}
	if c.Path != "" {
		return c.Path, nil
	}
	if !c.Latest {
		return "", fmt.Errorf("an export file or --latest is required")
	}
	info, err := transfer.NewArchive(ctx.Config.Dir()).Latest()
	if err != nil {
		return "", err
	}
	return info.Path, nil
}

func quote(path string) string {
	if strings.ContainsAny(path, " \t") {
		return fmt.Sprintf("%q", path)
	}
	return path
}

// ListCmd shows the export archive
type ListCmd struct{}

func (c *ListCmd) Run(ctx *cli.Context) error {
	archive := transfer.NewArchive(ctx.Config.Dir())
	exports, err := archive.List()
	if err != nil {
		return err
	}
	if len(exports) == 0 {
		ctx.Printf("No exports in %s\n", archive.Dir())
		return nil
	}
	for _, e := range exports {
		ctx.Printf("%s  %-4s  %6d bytes  %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Format, e.Size, filepath.Base(e.Path))
	}
	return nil
}

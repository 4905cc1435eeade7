package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vesper/internal/driver"
	"vesper/internal/sym"
)

var (
	tablesEmitCache bool
	tablesCacheDir  string
)

func init() {
	tablesCmd.Flags().BoolVar(&tablesEmitCache, "emit-cache", false, "write the link cache after a clean resolution")
	tablesCmd.Flags().StringVar(&tablesCacheDir, "cache-dir", "", "override the link cache directory")
}

var tablesCmd = &cobra.Command{
	Use:   "tables <manifest>",
	Short: "Dump finalized dispatch tables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opts, err := buildOptions(cmd, path)
		if err != nil {
			return err
		}
		opts.EmitCache = tablesEmitCache
		opts.CacheDir = tablesCacheDir

		res, err := driver.CheckFile(path, opts)
		if err != nil {
			return err
		}
		if res.HasErrors() {
			if _, err := renderResults(cmd, []*driver.Result{res}, "pretty"); err != nil {
				return err
			}
			return fmt.Errorf("%s: resolution failed, tables are best-effort", path)
		}
		dumpTables(cmd.OutOrStdout(), res)
		return nil
	},
}

func dumpTables(out io.Writer, res *driver.Result) {
	g := res.Graph
	for i := 1; i <= g.Classes.Len(); i++ {
		id := sym.ClassID(i)
		c := g.Classes.Get(id)
		if c == nil {
			continue
		}
		fmt.Fprintf(out, "class %s (%d slots)\n", g.ClassName(id), len(c.Vtbl))
		for slot, did := range c.Vtbl {
			sig, intro := res.Res.DeclLabels(did)
			line := fmt.Sprintf("  [%d] %s %s", slot, g.Name(did), sig)
			if d := g.Decls.Get(did); d != nil && d.OwnerClass != id {
				line += fmt.Sprintf("  (inherited from %s)", g.ClassName(d.OwnerClass))
			}
			if intro != "" {
				line += fmt.Sprintf("  (introduced as %s)", intro)
			}
			fmt.Fprintln(out, line)
		}
		for _, did := range c.Finals {
			sig, _ := res.Res.DeclLabels(did)
			fmt.Fprintf(out, "  [final] %s %s\n", g.Name(did), sig)
		}
	}
	for i := 1; i <= g.Ifaces.Len(); i++ {
		id := sym.IfaceID(i)
		f := g.Ifaces.Get(id)
		if f == nil {
			continue
		}
		fmt.Fprintf(out, "interface %s (%d slots)\n", g.IfaceName(id), len(f.Table))
		for slot, did := range f.Table {
			sig, _ := res.Res.DeclLabels(did)
			fmt.Fprintf(out, "  [%d] %s %s\n", slot, g.Name(did), sig)
		}
	}
}

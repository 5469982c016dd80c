package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gemlaunch/internal/gemset"
	"gemlaunch/internal/paths"
	"gemlaunch/internal/tui"
)

var (
	cacheCleanDryRun bool
	cacheCleanAll    bool
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or prune the private gemsets",
	}

	cmd.AddCommand(newCacheInfoCmd())
	cmd.AddCommand(newCacheCleanCmd())
	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show gemset locations and disk usage",
		RunE:  runCacheInfo,
	}
}

func newCacheCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove gemsets built for other Ruby interpreters",
		RunE:  runCacheClean,
	}

	cmd.Flags().BoolVar(&cacheCleanDryRun, "dry-run", false, "List what would be removed")
	cmd.Flags().BoolVar(&cacheCleanAll, "all", false, "Also remove the gemset of the current interpreter")
	return cmd
}

type gemsetInfo struct {
	Path    string   `json:"path"`
	Bytes   int64    `json:"bytes"`
	Current bool     `json:"current"`
	Gems    []string `json:"gems,omitempty"`
}

type cacheInfo struct {
	CacheDir string       `json:"cache_dir"`
	Current  string       `json:"current,omitempty"`
	Gemsets  []gemsetInfo `json:"gemsets"`
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	info, err := collectCacheInfo(cmd, s)
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd, info)
	}

	cmd.Println(tui.HeaderStyle.Render("Cache:") + " " + info.CacheDir)
	if info.Current == "" {
		cmd.Println(tui.WarnStyle.Render("  ruby not found; current gemset unknown"))
	}
	if len(info.Gemsets) == 0 {
		cmd.Println(tui.DimStyle.Render("  no gemsets"))
		return nil
	}
	var total int64
	for _, g := range info.Gemsets {
		total += g.Bytes
		marker := " "
		if g.Current {
			marker = tui.OKStyle.Render("*")
		}
		cmd.Printf("%s %s  %s\n", marker, filepath.Base(g.Path), tui.DimStyle.Render(humanize.Bytes(uint64(g.Bytes))))
		if len(g.Gems) > 0 {
			cmd.Println(tui.DimStyle.Render("    " + strings.Join(g.Gems, ", ")))
		}
	}
	cmd.Println(tui.DimStyle.Render("total " + humanize.Bytes(uint64(total))))
	return nil
}

// collectCacheInfo sizes every gemset and marks the one matching the
// interpreter on PATH. A missing interpreter is not an error here.
func collectCacheInfo(cmd *cobra.Command, s *session) (cacheInfo, error) {
	info := cacheInfo{CacheDir: s.user.CacheDir, Gemsets: []gemsetInfo{}}

	current, err := gemset.VersionedHome(cmd.Context(), s.runner, s.global.Ruby, s.user.CacheDir, s.env)
	if err != nil {
		s.logger.Warn("cannot fingerprint ruby", "err", err)
	} else {
		info.Current = current
	}

	roots, err := gemset.Roots(s.user.CacheDir)
	if err != nil {
		return info, err
	}
	for _, root := range roots {
		size, err := paths.DiskUsage(root)
		if err != nil {
			return info, err
		}
		g := gemsetInfo{Path: root, Bytes: size, Current: root == current}
		if m, err := gemset.LoadManifest(root); err != nil {
			s.logger.Warn("unreadable gemset manifest", "path", root, "err", err)
		} else {
			for name := range m.Entries {
				g.Gems = append(g.Gems, name)
			}
			sort.Strings(g.Gems)
		}
		info.Gemsets = append(info.Gemsets, g)
	}
	return info, nil
}

func runCacheClean(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	info, err := collectCacheInfo(cmd, s)
	if err != nil {
		return err
	}
	if info.Current == "" && !cacheCleanAll {
		return fmt.Errorf("cannot tell which gemset is current; rerun with --all to remove every gemset")
	}

	var removed []gemsetInfo
	for _, g := range info.Gemsets {
		if g.Current && !cacheCleanAll {
			continue
		}
		if cacheCleanDryRun {
			removed = append(removed, g)
			continue
		}
		if err := removeGemset(cmd, g.Path); err != nil {
			return err
		}
		s.logger.Info("removed gemset", "path", g.Path)
		removed = append(removed, g)
	}

	if outputJSON {
		return writeJSON(cmd, struct {
			DryRun  bool         `json:"dry_run"`
			Removed []gemsetInfo `json:"removed"`
		}{cacheCleanDryRun, removed})
	}

	verb := "removed"
	if cacheCleanDryRun {
		verb = "would remove"
	}
	var freed int64
	for _, g := range removed {
		freed += g.Bytes
		cmd.Printf("%s %s\n", verb, g.Path)
	}
	cmd.Printf("%d gemset(s), %s\n", len(removed), humanize.Bytes(uint64(freed)))
	return nil
}

// removeGemset deletes a gemset while holding its lock so a concurrent
// install never sees a half-removed directory.
func removeGemset(cmd *cobra.Command, home string) error {
	unlock, err := gemset.Lock(cmd.Context(), home)
	if err != nil {
		return err
	}
	defer unlock()
	if err := os.RemoveAll(home); err != nil {
		return fmt.Errorf("remove gemset %s: %w", home, err)
	}
	return nil
}

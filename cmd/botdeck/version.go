package main

import (
	"fmt"
	"io"
	rtdebug "runtime/debug"

	"github.com/spf13/cobra"
)

// Overridden with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

type buildInfo struct {
	version   string
	commit    string
	builtAt   string
	goVersion string
	modified  bool
}

// resolveBuild fills whatever the linker flags left empty from the VCS
// stamps the go command embeds.
func resolveBuild(info *rtdebug.BuildInfo, ok bool) buildInfo {
	b := buildInfo{version: Version, commit: GitCommit, builtAt: BuildTime}
	if ok && info != nil {
		b.goVersion = info.GoVersion
		if b.version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			b.version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if b.commit == "" {
					b.commit = s.Value
				}
			case "vcs.time":
				if b.builtAt == "" {
					b.builtAt = s.Value
				}
			case "vcs.modified":
				b.modified = s.Value == "true"
			}
		}
	}
	if len(b.commit) > 12 {
		b.commit = b.commit[:12]
	}
	if b.commit == "" {
		b.commit = "unknown"
	}
	if b.builtAt == "" {
		b.builtAt = "unknown"
	}
	return b
}

func (b buildInfo) write(w io.Writer) {
	commit := b.commit
	if b.modified {
		commit += "-dirty"
	}
	fmt.Fprintf(w, "botdeck %s\n", b.version)
	fmt.Fprintf(w, "  commit: %s\n", commit)
	fmt.Fprintf(w, "  built:  %s\n", b.builtAt)
	if b.goVersion != "" {
		fmt.Fprintf(w, "  go:     %s\n", b.goVersion)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		resolveBuild(rtdebug.ReadBuildInfo()).write(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Command los is the CLI entry point (spec §6.4), replacing the
// teacher's flag-based main.go with a cobra command tree: a root command
// carrying -version, and new/build/run subcommands that read
// ./project.json through the manifest package and drive the compiler
// through the driver package.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Indseta/los/driver"
	"github.com/Indseta/los/manifest"
)

// version is stamped at build time via -ldflags "-X main.version=...";
// it defaults to "dev" for local builds.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "los",
		Short:         "los compiles .los source files to a native Windows executable",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newNewCmd())
	root.AddCommand(newBuildCmd(&verbose))
	root.AddCommand(newRunCmd(&verbose))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the los version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "los %s\n", version)
			return nil
		},
	}
}

func newNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <id>",
		Short: "scaffold a new project directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return scaffold(afero.NewOsFs(), args[0])
		},
	}
}

func scaffold(fs afero.Fs, id string) error {
	m := manifest.Manifest{Name: id, SourceDir: "src", OutputDir: "build", Binary: id}
	if err := manifest.Write(fs, id, m); err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Join(id, "src"), 0o755); err != nil {
		return err
	}
	src := "void main() {\n\tprintf(\"hello, world\");\n}\n"
	return afero.WriteFile(fs, filepath.Join(id, "src", "main.los"), []byte(src), 0o644)
}

func newBuildCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "compile and link ./project.json's sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := build(*verbose)
			return err
		},
	}
}

func newRunCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "build and then execute the linked binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			log := newLogger(*verbose)
			exe, err := build(*verbose)
			if err != nil {
				return err
			}
			d := driver.New(fs, log)
			code, err := d.Run(exe)
			if err != nil {
				return err
			}
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
}

// build reads ./project.json, compiles and links every enumerated
// source, and returns the path to the linked executable.
func build(verbose bool) (string, error) {
	fs := afero.NewOsFs()
	log := newLogger(verbose)

	m, err := manifest.Load(fs, ".")
	if err != nil {
		driver.ReportFailure(err)
		return "", err
	}

	sources, err := manifest.Sources(fs, ".", m)
	if err != nil {
		driver.ReportFailure(err)
		return "", err
	}
	if len(sources) == 0 {
		err := fmt.Errorf("no %s files found under %s", manifest.SourceSuffix, m.SourceDir)
		driver.ReportFailure(err)
		return "", err
	}

	d := driver.New(fs, log)
	results, err := d.CompileAll(sources)
	if err != nil {
		driver.ReportFailure(err)
		return "", err
	}
	driver.ReportSuccess(results)

	objects := make([]string, len(results))
	for i, r := range results {
		objects[i] = r.Object
	}

	exe := filepath.Join(m.OutputDir, m.Binary)
	if err := fs.MkdirAll(m.OutputDir, 0o755); err != nil {
		driver.ReportFailure(err)
		return "", err
	}
	if err := d.Link(objects, exe); err != nil {
		driver.ReportFailure(err)
		return "", err
	}
	color.Cyan("linked\t%s", exe)
	return exe, nil
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/alecthomas/kong"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/jaxxstorm/scmver"
)

// Version will be set by build process
var Version = "dev"

type CLI struct {
	Commitish   string `arg:"" optional:"" help:"Git commitish to describe (default: HEAD)"`
	Repo        string `short:"r" help:"Repository path (default: current directory)"`
	Scheme      string `short:"s" help:"Version scheme (e.g., 'guess-next-dev', 'calver-by-date')"`
	Local       string `short:"l" help:"Local scheme (e.g., 'node-and-date', 'no-local-version')"`
	TagRegex    string `help:"Regex extracting the version from tag names (e.g., '^sdk/v(?P<version>.*)')"`
	Fallback    string `help:"Version to assume when no tag matches (default: '0.0')"`
	Config      string `short:"c" help:"Path to a YAML configuration file" type:"path"`
	JSON        bool   `short:"j" help:"Output as JSON"`
	Quiet       bool   `short:"q" help:"Suppress warnings"`
	ShowVersion bool   `help:"Show version information" name:"version"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("scmver"),
		kong.Description("Infer the next version of a project from its Git tags and commit state"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	if c.ShowVersion {
		return c.showVersion()
	}
	return c.inferVersion()
}

func (c *CLI) showVersion() error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "scmver",
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(versionInfo)
	}

	fmt.Printf("scmver version %s\n", Version)
	return nil
}

func (c *CLI) inferVersion() error {
	config, err := c.resolveConfig()
	if err != nil {
		return err
	}

	repoPath := c.Repo
	if repoPath == "" {
		repoPath, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
	}

	repo, err := scmver.OpenRepository(repoPath)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}

	commitish := "HEAD"
	if c.Commitish != "" {
		commitish = c.Commitish
	}

	snapshot, err := scmver.Describe(scmver.Options{
		Repository:      repo,
		Commitish:       plumbing.Revision(commitish),
		Config:          config,
		FallbackVersion: c.Fallback,
	})
	if err != nil {
		return err
	}

	version, err := scmver.FormatVersion(snapshot, config.VersionScheme, config.LocalScheme)
	if err != nil {
		return err
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(buildOutput(snapshot, version))
	}

	fmt.Println(version)
	return nil
}

// resolveConfig layers flags over the optional config file.
func (c *CLI) resolveConfig() (*scmver.Config, error) {
	config, err := scmver.LoadConfig(c.Config)
	if err != nil {
		return nil, err
	}

	if c.TagRegex != "" {
		re, err := regexp.Compile(c.TagRegex)
		if err != nil {
			return nil, fmt.Errorf("invalid tag regex: %w", err)
		}
		if err := scmver.ValidateTagRegex(re); err != nil {
			return nil, err
		}
		config.TagRegex = re
	}
	if c.Scheme != "" {
		if _, err := scmver.ResolveVersionScheme(c.Scheme); err != nil {
			return nil, err
		}
		config.VersionScheme = c.Scheme
	}
	if c.Local != "" {
		if _, err := scmver.ResolveLocalScheme(c.Local); err != nil {
			return nil, err
		}
		config.LocalScheme = c.Local
	}

	if c.Quiet {
		config.Warn = func(string) {}
	} else {
		config.Warn = func(msg string) {
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
		}
	}
	return config, nil
}

type output struct {
	Version  string `json:"version"`
	Tag      string `json:"tag"`
	Distance *int   `json:"distance"`
	Node     string `json:"node,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Dirty    bool   `json:"dirty"`
}

func buildOutput(v *scmver.ScmVersion, version string) output {
	out := output{
		Version: version,
		Tag:     v.Tag,
		Node:    v.Node,
		Branch:  v.Branch,
		Dirty:   v.Dirty,
	}
	if v.HasDistance {
		distance := v.Distance
		out.Distance = &distance
	}
	return out
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/amanmcp/semisearch/internal/config"
	searcherrors "github.com/amanmcp/semisearch/internal/errors"
)

func newConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration for the current project",
	}
	c.AddCommand(&cobra.Command{
		Use:   "show [path]",
		Short: "Print the merged config (defaults + project + user + env)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return runConfigShow(path)
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a .semisearch.yaml with the current defaults into path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return runConfigInit(path)
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "backup",
		Short: "Back up the user-level config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigBackup()
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "restore <backup-path>",
		Short: "Restore the user-level config file from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigRestore(args[0])
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "list-backups",
		Short: "List backups of the user-level config file, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigListBackups()
		},
	})
	return c
}

func runConfigShow(path string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return searcherrors.DirectoryAccessError("cannot resolve path", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return searcherrors.GenericError("cannot load config", err)
	}

	projectType := config.DetectProjectType(root)

	w := newOutputWriter()
	w.Statusf("", "project type:    %s", projectType)
	w.Statusf("", "chunk size:      %d", cfg.Search.ChunkSize)
	w.Statusf("", "chunk overlap:   %d", cfg.Search.ChunkOverlap)
	w.Statusf("", "max results:     %d", cfg.Search.MaxResults)
	w.Statusf("", "max file size:   %d MB", cfg.Performance.MaxFileSizeMB)
	w.Statusf("", "index workers:   %d", cfg.Performance.IndexWorkers)
	w.Statusf("", "embeddings:      %v (batch %d)", cfg.Embeddings.Enabled, cfg.Embeddings.BatchSize)
	w.Statusf("", "submodules:      %v (recursive %v)", cfg.Submodules.Enabled, cfg.Submodules.Recursive)
	w.Statusf("", "include paths:   %v", cfg.Paths.Include)
	w.Statusf("", "exclude paths:   %v", cfg.Paths.Exclude)

	if srcDirs := config.DiscoverSourceDirs(root); len(srcDirs) > 0 {
		w.Statusf("", "source dirs:     %v", srcDirs)
	}
	if docDirs := config.DiscoverDocsDirs(root); len(docDirs) > 0 {
		w.Statusf("", "doc dirs:        %v", docDirs)
	}
	return nil
}

func runConfigInit(path string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return searcherrors.DirectoryAccessError("cannot resolve path", err)
	}

	cfg := config.NewConfig()
	target := root + "/.semisearch.yaml"
	if err := cfg.WriteYAML(target); err != nil {
		return searcherrors.GenericError("cannot write config", err)
	}

	w := newOutputWriter()
	w.Successf("wrote %s", target)
	return nil
}

func runConfigBackup() error {
	backupPath, err := config.BackupUserConfig()
	if err != nil {
		return searcherrors.GenericError("cannot back up user config", err)
	}

	w := newOutputWriter()
	if backupPath == "" {
		w.Statusf("", "no user config to back up")
		return nil
	}
	w.Successf("backed up user config to %s", backupPath)
	return nil
}

func runConfigRestore(backupPath string) error {
	if err := config.RestoreUserConfig(backupPath); err != nil {
		return searcherrors.GenericError("cannot restore user config", err)
	}

	w := newOutputWriter()
	w.Successf("restored user config from %s", backupPath)
	return nil
}

func runConfigListBackups() error {
	backups, err := config.ListUserConfigBackups()
	if err != nil {
		return searcherrors.GenericError("cannot list user config backups", err)
	}

	w := newOutputWriter()
	if len(backups) == 0 {
		w.Statusf("", "no backups found")
		return nil
	}
	for _, b := range backups {
		w.Statusf("", "%s", b)
	}
	return nil
}

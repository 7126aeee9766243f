package main

import (
	"fmt"
	"os"

	"clipforge/internal/config"
	"clipforge/internal/llm"

	"github.com/spf13/cobra"
)

// cacheCmd maintains the LLM response cache
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the LLM response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete expired cache entries",
	RunE:  runCacheClear,
}

// configCmd manages the config file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	configCmd.AddCommand(configInitCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cache, err := llm.NewCache(cfg.CacheDir("llm"), cfg.CacheTTL())
	if err != nil {
		return err
	}
	defer cache.Close()

	n, err := cache.ClearExpired()
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d expired entries\n", n)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if err := config.Default().Save(configPath); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", configPath)
	return nil
}

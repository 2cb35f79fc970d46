package main

import (
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	cmd_commons "github.com/pipeforge/buildcache/cmd/commons"
	"github.com/pipeforge/buildcache/commons"
	"github.com/pipeforge/buildcache/service"
	log "github.com/sirupsen/logrus"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "buildcache [subcommand..]",
	Short: "Cache build artifacts under content keys",
	Long:  "Cache build artifacts under content keys, restoring previously saved paths or saving the current paths for future runs.",
	RunE:  processCommand,
}

var restoreCmd = &cobra.Command{
	Use:   "restore [paths..]",
	Short: "Restore cached paths",
	Long:  "Restore previously cached contents into the given paths, scanning the primary key first and the restore keys in order.",
	RunE:  processRestoreCommand,
}

var saveCmd = &cobra.Command{
	Use:   "save [paths..]",
	Short: "Save paths to the cache",
	Long:  "Package the given paths into a single archive and store it under the given key.",
	RunE:  processSaveCommand,
}

func Execute() error {
	return rootCmd.Execute()
}

func processCommand(command *cobra.Command, args []string) error {
	return command.Usage()
}

func main() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000000",
		FullTimestamp:   true,
	})

	log.SetLevel(log.InfoLevel)

	logger := log.WithFields(log.Fields{
		"package":  "main",
		"function": "main",
	})

	// attach common flags
	cmd_commons.SetCommonFlags(rootCmd)

	restoreCmd.Flags().StringP("key", "k", "", "Set primary cache key")
	restoreCmd.Flags().StringSliceP("restore_keys", "r", []string{}, "Set ordered fallback cache keys")
	restoreCmd.Flags().BoolP("lookup_only", "l", false, "Report a hit without restoring content")
	restoreCmd.Flags().StringP("base_dir", "", "", "Set base dir paths are relative to")

	saveCmd.Flags().StringP("key", "k", "", "Set cache key")
	saveCmd.Flags().StringP("base_dir", "", "", "Set base dir paths are relative to")

	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(saveCmd)

	err := Execute()
	if err != nil {
		logger.Fatal(err)
		os.Exit(1)
	}
}

// setupService processes common flags and creates the cache service
func setupService(command *cobra.Command) (*service.CacheService, *commons.Config, io.WriteCloser, bool, error) {
	logger := log.WithFields(log.Fields{
		"package":  "main",
		"function": "setupService",
	})

	config, logWriter, cont, err := cmd_commons.ProcessCommonFlags(command)
	if err != nil {
		return nil, nil, logWriter, false, err
	}

	if !cont {
		return nil, nil, logWriter, false, nil
	}

	versionInfo := commons.GetVersion()
	logger.Debugf("buildcache version - %s, commit - %s", versionInfo.ServiceVersion, versionInfo.GitCommit)

	if config.PrometheusExporterPort > 0 {
		go func() {
			prometheusExporterAddr := fmt.Sprintf(":%d", config.PrometheusExporterPort)
			http.Handle("/metrics", promhttp.Handler())

			logger.Infof("Starting prometheus exporter at %s", prometheusExporterAddr)
			http.ListenAndServe(prometheusExporterAddr, nil)
		}()
	}

	svc, err := service.NewCacheService(config)
	if err != nil {
		logger.WithError(err).Error("failed to create the cache service")
		return nil, nil, logWriter, false, err
	}

	return svc, config, logWriter, true, nil
}

// processRestoreCommand runs the restore operation
func processRestoreCommand(command *cobra.Command, args []string) error {
	logger := log.WithFields(log.Fields{
		"package":  "main",
		"function": "processRestoreCommand",
	})

	svc, config, logWriter, cont, err := setupService(command)
	if logWriter != nil {
		defer logWriter.Close()
	}

	if err != nil {
		return err
	}

	if !cont {
		return nil
	}

	defer svc.Release()

	if config.Profile {
		prof := profile.Start(profile.MemProfile)
		defer prof.Stop()
	}

	primaryKey, _ := command.Flags().GetString("key")
	restoreKeys, _ := command.Flags().GetStringSlice("restore_keys")
	lookupOnly, _ := command.Flags().GetBool("lookup_only")
	baseDir, _ := command.Flags().GetString("base_dir")

	result, err := svc.Restore(args, primaryKey, restoreKeys, service.RestoreOptions{
		LookupOnly: lookupOnly,
		BaseDir:    baseDir,
	})
	if err != nil {
		logger.Error(err)
		return err
	}

	switch result.Outcome {
	case service.RestoreOutcomeHit:
		fmt.Printf("restored cache entry for key %q\n", result.MatchedKey)
	default:
		fmt.Println("no cache entry restored")
	}

	return nil
}

// processSaveCommand runs the save operation
func processSaveCommand(command *cobra.Command, args []string) error {
	logger := log.WithFields(log.Fields{
		"package":  "main",
		"function": "processSaveCommand",
	})

	svc, config, logWriter, cont, err := setupService(command)
	if logWriter != nil {
		defer logWriter.Close()
	}

	if err != nil {
		return err
	}

	if !cont {
		return nil
	}

	defer svc.Release()

	if config.Profile {
		prof := profile.Start(profile.MemProfile)
		defer prof.Stop()
	}

	key, _ := command.Flags().GetString("key")
	baseDir, _ := command.Flags().GetString("base_dir")

	result, err := svc.Save(args, key, service.SaveOptions{
		BaseDir: baseDir,
	})
	if err != nil {
		logger.Error(err)
		return err
	}

	switch result.Outcome {
	case service.SaveOutcomeSaved:
		fmt.Printf("saved cache entry %s for key %q\n", result.SavedID, key)
	case service.SaveOutcomeSkipped:
		fmt.Println("cache storage is not configured - nothing saved")
	default:
		fmt.Println("cache entry not saved")
	}

	return nil
}

package commons

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pipeforge/buildcache/commons"
)

func SetCommonFlags(command *cobra.Command) {
	command.PersistentFlags().BoolP("version", "v", false, "Print version")
	command.PersistentFlags().BoolP("help", "h", false, "Print help")
	command.PersistentFlags().BoolP("debug", "d", false, "Enable debug mode")
	command.PersistentFlags().BoolP("profile", "", false, "Enable profiling")

	command.PersistentFlags().StringP("config", "", "", "Set config file (yaml)")
	command.PersistentFlags().StringP("scope_root", "", "", "Set cache scope root path")
	command.PersistentFlags().StringP("repository", "", "", "Set owning repository id")
	command.PersistentFlags().StringP("ref", "", "", "Set ref id")
	command.PersistentFlags().StringP("temp_root", "", "", "Set temp file root path")
	command.PersistentFlags().StringP("archive_method", "", "", "Set archive method (targz or tarzst)")
	command.PersistentFlags().Int64P("archive_size_max", "", 0, "Set archive max size")
	command.PersistentFlags().StringP("log_path", "", "", "Set log file path")

	command.PersistentFlags().IntP("profile_port", "", commons.ProfileServicePortDefault, "Set profile service port")
	command.PersistentFlags().IntP("prometheus_exporter_port", "", 0, "Set prometheus exporter port")
}

func getBoolFlag(command *cobra.Command, name string) bool {
	flag := command.Flags().Lookup(name)
	if flag == nil {
		return false
	}

	value, err := strconv.ParseBool(flag.Value.String())
	if err != nil {
		return false
	}

	return value
}

func getStringFlag(command *cobra.Command, name string) string {
	flag := command.Flags().Lookup(name)
	if flag == nil {
		return ""
	}

	return flag.Value.String()
}

func getInt64Flag(command *cobra.Command, name string) int64 {
	flag := command.Flags().Lookup(name)
	if flag == nil {
		return 0
	}

	value, err := strconv.ParseInt(flag.Value.String(), 10, 64)
	if err != nil {
		return 0
	}

	return value
}

func ProcessCommonFlags(command *cobra.Command) (*commons.Config, io.WriteCloser, bool, error) {
	logger := log.WithFields(log.Fields{
		"package":  "commons",
		"function": "ProcessCommonFlags",
	})

	debug := getBoolFlag(command, "debug")
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if getBoolFlag(command, "help") {
		PrintHelp(command)
		return nil, nil, false, nil // stop here
	}

	if getBoolFlag(command, "version") {
		PrintVersion(command)
		return nil, nil, false, nil // stop here
	}

	readConfig := false
	var config *commons.Config

	configPath := getStringFlag(command, "config")
	if len(configPath) > 0 {
		yamlBytes, err := os.ReadFile(configPath)
		if err != nil {
			logger.Error(err)
			return nil, nil, false, err // stop here
		}

		fileConfig, err := commons.NewConfigFromYAML(yamlBytes)
		if err != nil {
			logger.Error(err)
			return nil, nil, false, err // stop here
		}

		config = fileConfig
		readConfig = true
	}

	// default config
	if !readConfig {
		config = commons.NewDefaultConfig()
	}

	// prioritize command-line flags over config files
	if debug {
		config.Debug = true
	}

	if getBoolFlag(command, "profile") {
		config.Profile = true
	}

	scopeRoot := getStringFlag(command, "scope_root")
	if len(scopeRoot) > 0 {
		config.ScopeRootPath = scopeRoot
	}

	repository := getStringFlag(command, "repository")
	if len(repository) > 0 {
		config.RepositoryID = repository
	}

	ref := getStringFlag(command, "ref")
	if len(ref) > 0 {
		config.RefID = ref
	}

	tempRoot := getStringFlag(command, "temp_root")
	if len(tempRoot) > 0 {
		config.TempRootPath = tempRoot
	}

	archiveMethod := getStringFlag(command, "archive_method")
	if len(archiveMethod) > 0 {
		config.ArchiveMethod = archiveMethod
	}

	archiveSizeMax := getInt64Flag(command, "archive_size_max")
	if archiveSizeMax > 0 {
		config.ArchiveSizeMax = archiveSizeMax
	}

	logPath := getStringFlag(command, "log_path")
	if len(logPath) > 0 {
		config.LogPath = logPath
	}

	profilePort := getInt64Flag(command, "profile_port")
	if profilePort > 0 {
		config.ProfileServicePort = int(profilePort)
	}

	prometheusExporterPort := getInt64Flag(command, "prometheus_exporter_port")
	if prometheusExporterPort > 0 {
		config.PrometheusExporterPort = int(prometheusExporterPort)
	}

	// environment fills what flags and config files left unset
	err := config.FillFromEnv()
	if err != nil {
		logger.Error(err)
		return nil, nil, false, err // stop here
	}

	if config.Debug {
		log.SetLevel(log.DebugLevel)
	}

	err = config.Validate()
	if err != nil {
		logger.Error(err)
		return nil, nil, false, err // stop here
	}

	var logWriter io.WriteCloser
	logFilePath := config.GetLogFilePath()
	if len(logFilePath) == 0 {
		log.SetOutput(os.Stderr)
	} else {
		logWriter = getLogWriter(logFilePath)

		// use multi output - to output to file and stderr
		mw := io.MultiWriter(os.Stderr, logWriter)
		log.SetOutput(mw)

		logger.Infof("Logging to %s", logFilePath)
	}

	return config, logWriter, true, nil // continue
}

func PrintVersion(command *cobra.Command) error {
	info, err := commons.GetVersionJSON()
	if err != nil {
		return err
	}

	fmt.Println(info)
	return nil
}

func PrintHelp(command *cobra.Command) error {
	return command.Usage()
}

func getLogWriter(logFilePath string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    50, // 50MB
		MaxBackups: 5,
		MaxAge:     30, // 30 days
		Compress:   false,
	}
}

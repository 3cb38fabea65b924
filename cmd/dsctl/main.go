package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"datacuration/internal/client"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options 全局选项，优先级：命令行 > 环境变量 DSCTL_* > 配置文件 ~/.dsctl.yaml
type options struct {
	v *viper.Viper
}

func (o *options) server() string {
	return o.v.GetString("server")
}

func (o *options) operator() (string, error) {
	op := strings.TrimSpace(o.v.GetString("operator"))
	if op == "" {
		return "", errors.New("operator is required: use --operator or DSCTL_OPERATOR")
	}
	return op, nil
}

func (o *options) client() *client.Client {
	return client.New(client.Config{
		BaseURL: o.server(),
		Timeout: o.v.GetDuration("timeout"),
	})
}

func newRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}
	var configFile string

	root := &cobra.Command{
		Use:           "dsctl",
		Short:         "Command line client for the data source service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(opts.v, configFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default $HOME/.dsctl.yaml)")
	flags.String("server", "http://localhost:8000", "data source service base URL")
	flags.String("operator", "", "operator recorded on mutations")
	flags.Duration("timeout", 30*time.Second, "request timeout")
	_ = opts.v.BindPFlag("server", flags.Lookup("server"))
	_ = opts.v.BindPFlag("operator", flags.Lookup("operator"))
	_ = opts.v.BindPFlag("timeout", flags.Lookup("timeout"))

	root.AddCommand(newCreateCmd(opts))
	root.AddCommand(newGetCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newUpdateInfoCmd(opts))
	root.AddCommand(newUpdateContentCmd(opts))
	root.AddCommand(newDeleteCmd(opts))
	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newRemoveCmd(opts))
	root.AddCommand(newConfirmCmd(opts))
	root.AddCommand(newRevertCmd(opts))
	root.AddCommand(newBatchCmd(opts))
	return root
}

func loadConfig(v *viper.Viper, configFile string) error {
	v.SetEnvPrefix("DSCTL")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.SetConfigName(".dsctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", filepath.Clean(v.ConfigFileUsed()), err)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMessage(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

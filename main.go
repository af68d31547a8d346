package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tickd/tickd/agent"
	"github.com/tickd/tickd/config"
)

type cli struct {
	cfg config.Config
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "tickd", "namespace used in storage")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("storage-impl", "redis", "implementation of underline storage")
	cmd.Flags().Int("max-retries", 2, "number of retries for a failed run")
	cmd.Flags().Duration("retry-delay", 5*time.Second, "delay before a failed run is retried")
	cmd.Flags().Duration("poll-interval", 1*time.Second, "queue poll interval")
	cmd.Flags().Int("poll-batch", 10, "queue poll batch size")
	cmd.Flags().Duration("followup-delay", 48*time.Hour, "delay before the signup followup")
	cmd.Flags().String("gemini-api-key", "", "api key for the classification oracle")
	cmd.Flags().String("gemini-model", "gemini-2.5-flash", "model used by the classification oracle")
	cmd.Flags().String("sendgrid-api-key", "", "api key for mail delivery")
	cmd.Flags().String("sender-email", "", "sender address for outgoing mail")
	cmd.Flags().String("twilio-account-sid", "", "twilio account sid")
	cmd.Flags().String("twilio-auth-token", "", "twilio auth token")
	cmd.Flags().String("twilio-phone-number", "", "twilio sender phone number")
	cmd.Flags().String("audit-log-file", "", "file receiving one record per terminal run, disabled when empty")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.EngineConfig.MaxRetries = viper.GetInt("max-retries")
	c.cfg.EngineConfig.RetryDelay = viper.GetDuration("retry-delay")
	c.cfg.EngineConfig.PollInterval = viper.GetDuration("poll-interval")
	c.cfg.EngineConfig.PollBatch = viper.GetInt("poll-batch")
	c.cfg.FollowupDelay = viper.GetDuration("followup-delay")
	c.cfg.OracleConfig.ApiKey = viper.GetString("gemini-api-key")
	c.cfg.OracleConfig.Model = viper.GetString("gemini-model")
	c.cfg.MailerConfig.ApiKey = viper.GetString("sendgrid-api-key")
	c.cfg.MailerConfig.SenderEmail = viper.GetString("sender-email")
	c.cfg.SmsConfig.AccountSid = viper.GetString("twilio-account-sid")
	c.cfg.SmsConfig.AuthToken = viper.GetString("twilio-auth-token")
	c.cfg.SmsConfig.FromNumber = viper.GetString("twilio-phone-number")
	c.cfg.AuditLogFile = viper.GetString("audit-log-file")
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	agent, err := agent.New(c.cfg)
	if err != nil {
		panic(err)
	}
	err = agent.Start()
	if err != nil {
		panic(err)
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "tickd",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

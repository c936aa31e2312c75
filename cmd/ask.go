package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"newsagent/agent"
	"newsagent/config"
	"newsagent/news/newsapi"
	"newsagent/provider"
	"newsagent/session/inmemory"
)

func askCMD() *cobra.Command {
	var cfgPath string
	var sessionID string
	var ask = &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a one-shot news question from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)

			llm, err := provider.NewProvider(cfg.LLM)
			if err != nil {
				return err
			}
			news := newsapi.New(cfg.NewsAPI.APIKey, cfg.NewsAPI.Endpoint, cfg.NewsAPI.Timeout)
			ag := agent.New(llm, news, inmemory.NewStore(cfg.Session.TTL), nil,
				agent.WithSearchDefaults(cfg.NewsAPI.PageSize, cfg.NewsAPI.MaxResults))

			result, err := ag.ProcessRequest(cmd.Context(), strings.Join(args, " "), sessionID)
			if err != nil {
				return err
			}
			fmt.Println(result.Response)
			return nil
		},
	}
	ask.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	ask.Flags().StringVar(&sessionID, "session", "", "session id to resume")

	return ask
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/starloop/cartomancer/internal/oracle"
)

var (
	askLang    string
	askTimeout time.Duration
)

var askCmd = &cobra.Command{
	Use:   "ask [card_id] [question]",
	Short: "Ask the oracle a question about a card",
	Long: `Ask sends the content of a card together with your question to the Gemini
text-generation service and prints the reading. The API key is read from the
GEMINI_API_KEY environment variable, or from a .env file in the working directory.

Examples:
  cartomancer ask 9 "Should I take the new job?"
  cartomancer ask --lang pt 17 "O que devo esperar deste ano?"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid card id: %s", args[0])
		}
		question := strings.Join(args[1:], " ")

		if err := godotenv.Load(".env"); err != nil {
			logger.Debug("No .env file loaded", zap.Error(err))
		}
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is not set")
		}

		lang := askLang
		if lang == "" {
			lang = "es"
		}
		c, err := findCard(id, lang)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
		defer cancel()

		gen, err := oracle.NewGenAI(ctx, apiKey, oracle.Settings{
			Model:           cfg.Oracle.Model,
			MaxOutputTokens: cfg.Oracle.MaxOutputTokens,
			Temperature:     cfg.Oracle.Temperature,
			TopP:            cfg.Oracle.TopP,
		})
		if err != nil {
			return err
		}
		logger.Debug("Oracle ready", zap.String("generator", gen.Name()), zap.Int("card", c.ID))

		answer, err := oracle.New(gen, logger).Ask(ctx, *c, question, lang)
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println("  " + heading(c.Name))
		fmt.Println()
		for _, para := range strings.Split(answer, "\n") {
			for _, line := range wrapText(para, terminalWidth()-4) {
				fmt.Println("  " + line)
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&askLang, "lang", "l", "", "Language of the card and the answer (default: es)")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 60*time.Second, "Time to wait for the oracle")
}

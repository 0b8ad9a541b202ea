package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daisyflowers/budtender/internal/classification"
	"github.com/daisyflowers/budtender/internal/cli"
	"github.com/daisyflowers/budtender/internal/model"
	"github.com/daisyflowers/budtender/internal/recommend"
	"github.com/daisyflowers/budtender/internal/selector"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant from the terminal",
		Long: `Starts an interactive prompt against the live menu. Useful for
trying queries without running the HTTP server. Without an API key the
recommendations come from a plain local formatter instead of the model.`,
		RunE: runChat,
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cache, err := buildCache(nil)
	if err != nil {
		return err
	}

	recommender, err := createRecommender()
	if err != nil {
		slog.Debug("Falling back to local recommendations", "error", err)
		recommender = recommend.NewLocalClient()
	}

	cls := classification.NewDefault()
	sel := selector.New(selector.Config{
		Classifier: cls,
		Rand:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	})

	fmt.Println(cli.TitleStyle.Render("🌼 Daisy Flowers"))
	fmt.Println(cli.SubtleStyle.Render("Ask about flower, edibles, vapes, concentrates, pre-rolls..."))
	fmt.Println(cli.SubtleStyle.Render("Type 'quit' to exit."))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(cli.PromptStyle.Render("you> ") + " ")
		if !scanner.Scan() {
			break
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}

		snapshot := cache.Products(ctx)
		if len(snapshot.Products) == 0 {
			fmt.Println(cli.ErrorStyle.Render("The menu is empty right now, try again in a minute."))
			continue
		}

		category := cls.Classify(text)
		candidates := sel.Select(snapshot.Products, category, text, nil)
		cards := model.NewCards(candidates)

		answer, err := recommender.Recommend(ctx, cards, text, category)
		if err != nil {
			fmt.Println(cli.WarningStyle.Render("Model unavailable, showing raw matches instead."))
			answer, err = recommend.NewLocalClient().Recommend(ctx, cards, text, category)
			if err != nil {
				fmt.Println(cli.ErrorStyle.Render(err.Error()))
				continue
			}
		}

		fmt.Println()
		fmt.Println(cli.AnswerStyle.Render(answer))
		printPicks(sel.ChoosePair(candidates))
	}

	return scanner.Err()
}

func printPicks(picks []model.Product) {
	if len(picks) == 0 {
		return
	}

	var b strings.Builder
	for i, p := range picks {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s)", p.Name, p.Brand)
		if p.PriceEach > 0 {
			fmt.Fprintf(&b, " $%.2f", p.PriceEach)
		}
		if url := model.StoreURL(p); url != "" {
			b.WriteString("\n" + cli.SubtleStyle.Render(url))
		}
	}

	fmt.Println(cli.CardStyle.Render(b.String()))
	fmt.Println()
}

package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/quizgenix/internal/grading"
	"github.com/mind-engage/quizgenix/internal/quiz"
	"github.com/mind-engage/quizgenix/internal/synth"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Synthesize a quiz and print it as JSON (no database)",
	Long: `Synthesize questions for a topic and print them, answers included.

This is a stateless developer tool for checking catalog coverage and the
generated fallback content. With --answers the picks are graded as if the
quiz had been taken.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("topic", "", "Quiz topic (required)")
	previewCmd.Flags().String("subject", "", "Optional subject hint, e.g. javascript")
	previewCmd.Flags().String("difficulty", "medium", "easy, medium or hard")
	previewCmd.Flags().Int("count", 5, "Number of questions")
	previewCmd.Flags().Uint64("seed", 0, "Random seed; 0 picks one")
	previewCmd.Flags().IntSlice("answers", nil, "Selected option per question in order, -1 to skip")
	previewCmd.Flags().String("knowledge", "", "Path to a catalog JSON file")
	_ = previewCmd.MarkFlagRequired("topic")
}

type previewOutput struct {
	Domain           quiz.Domain     `json:"domain"`
	KnowledgeVersion string          `json:"knowledge_version"`
	Questions        []quiz.Question `json:"questions"`
	Result           *grading.Result `json:"result,omitempty"`
}

func runPreview(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	subject, _ := cmd.Flags().GetString("subject")
	diffVal, _ := cmd.Flags().GetString("difficulty")
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetUint64("seed")
	answers, _ := cmd.Flags().GetIntSlice("answers")
	path, _ := cmd.Flags().GetString("knowledge")

	log, err := newLogger(cmd, cmd.ErrOrStderr(), "warn", "text")
	if err != nil {
		return err
	}
	diff, err := quiz.ParseDifficulty(diffVal)
	if err != nil {
		return fmt.Errorf("invalid difficulty %q: must be easy, medium or hard", diffVal)
	}
	if len(answers) > count {
		return fmt.Errorf("got %d answers for %d questions", len(answers), count)
	}

	cat, err := loadCatalog(path)
	if err != nil {
		return err
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	sy := synth.New(cat, synth.WithLogger(log), synth.WithRand(rand.New(rand.NewPCG(seed, seed))))

	questions, err := sy.Synthesize(topic, subject, diff, count)
	if err != nil {
		return err
	}
	out := previewOutput{
		Domain:           questions[0].Domain,
		KnowledgeVersion: sy.KnowledgeVersion(),
		Questions:        questions,
	}

	if len(answers) > 0 {
		picked := make(map[int]int, len(answers))
		for i, a := range answers {
			if a >= 0 {
				picked[i+1] = a
			}
		}
		res := grading.NewEngine().Grade(grading.Input{
			SessionID:   "preview",
			UserID:      "preview",
			Questions:   questions,
			Answers:     picked,
			SubmittedAt: time.Now().UTC().Truncate(time.Second),
		})
		out.Result = &res
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdChallenge() *cli.Command {
	return &cli.Command{
		Name:    "challenge",
		Aliases: []string{"c"},
		Usage:   "Generate comprehension questions and grade answers",
		Commands: []*cli.Command{
			cmdChallengeQuestions(),
			cmdChallengeEvaluate(),
		},
	}
}

func sessionFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "session",
		Aliases:     []string{"s"},
		Usage:       "Session ID",
		Required:    true,
		Sources:     cli.EnvVars("MNEMOSYNE_SESSION"),
		Destination: dst,
	}
}

func cmdChallengeQuestions() *cli.Command {
	var sessionID string
	var count int
	var appCfg appConfig

	flags := []cli.Flag{
		sessionFlag(&sessionID),
		&cli.IntFlag{
			Name:        "count",
			Aliases:     []string{"n"},
			Usage:       "Number of questions (0 uses the configured count)",
			Destination: &count,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:  "questions",
		Usage: "Generate questions from the session's document",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := appCfg.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			questions, err := uc.Challenge.Questions(ctx, model.SessionContext{SessionID: model.SessionID(sessionID)}, count)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if len(questions) == 0 {
				color.New(color.FgYellow).Fprintln(w, "No questions could be generated.")
				return nil
			}
			num := color.New(color.FgCyan, color.Bold)
			for i, q := range questions {
				num.Fprintf(w, "%d. ", i+1)
				fmt.Fprintln(w, q.Text)
			}
			return nil
		},
	}
}

func cmdChallengeEvaluate() *cli.Command {
	var sessionID string
	var question string
	var answer string
	var appCfg appConfig

	flags := []cli.Flag{
		sessionFlag(&sessionID),
		&cli.StringFlag{
			Name:        "question",
			Aliases:     []string{"q"},
			Usage:       "The challenge question",
			Required:    true,
			Destination: &question,
		},
		&cli.StringFlag{
			Name:        "answer",
			Usage:       "Your answer",
			Destination: &answer,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:  "evaluate",
		Usage: "Grade an answer to a challenge question",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := appCfg.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			eval, err := uc.Challenge.Evaluate(ctx, model.SessionContext{SessionID: model.SessionID(sessionID)}, question, answer)
			if err != nil {
				return err
			}

			printEvaluation(c, eval)
			return nil
		},
	}
}

func printEvaluation(c *cli.Command, eval *model.Evaluation) {
	w := c.Root().Writer

	status := color.New(color.FgRed, color.Bold)
	switch eval.Status {
	case types.EvaluationStatusCorrect:
		status = color.New(color.FgGreen, color.Bold)
	case types.EvaluationStatusPartiallyCorrect:
		status = color.New(color.FgYellow, color.Bold)
	}

	label := color.New(color.Bold)
	label.Fprint(w, "Status:        ")
	status.Fprintln(w, eval.Status)
	label.Fprint(w, "Score:         ")
	fmt.Fprintf(w, "%d/%d\n", eval.Score, model.MaxScore)
	label.Fprint(w, "Correct:       ")
	fmt.Fprintln(w, eval.IsCorrect)
	label.Fprint(w, "Justification: ")
	fmt.Fprintln(w, eval.Justification)
	label.Fprint(w, "Snippet:       ")
	fmt.Fprintln(w, eval.DesiredSnippet)
}

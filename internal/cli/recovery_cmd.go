// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// recovery_cmd.go - The "recovery" command.
//
// Subcommands:
//   set         Store three questions and their answers
//   questions   Show the stored questions
//   verify      Answer the questions
//   reset       Answer the questions, then choose a new PIN
package cli

import (
	"context"
	"fmt"
)

const recoveryUsage = `  whitespc recovery set         Set the three security questions
  whitespc recovery questions   Show the stored questions
  whitespc recovery verify      Answer the questions
  whitespc recovery reset       Answer the questions and choose a new PIN`

// QuestionsData is the data of "recovery questions".
type QuestionsData struct {
	Configured bool     `json:"configured"`
	Questions  []string `json:"questions"`
}

func (a *App) handleRecovery(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)

	switch sub := p.Subcommand(); sub {
	case "set":
		return a.recoverySet(ctx, args)
	case "questions", "show", "":
		return a.recoveryQuestions(ctx, args)
	case "verify":
		if err := a.answerQuestions(ctx); err != nil {
			return err
		}
		return a.done(args, "recovery verify", "Answers accepted.")
	case "reset":
		if err := a.answerQuestions(ctx); err != nil {
			return err
		}
		pin, err := promptNewSecret(a.Prompt, "New PIN")
		if err != nil {
			return err
		}
		if err := a.Guard.ResetPinWithRecovery(ctx, pin); err != nil {
			return err
		}
		return a.done(args, "recovery reset", "PIN reset. Any lockout was cleared.")
	default:
		return ErrUnknownSubcommand("recovery", sub, recoveryUsage)
	}
}

func (a *App) recoverySet(ctx context.Context, args Args) error {
	has, err := a.Guard.HasPinSet(ctx)
	if err != nil {
		return err
	}
	if !has {
		return &UsageError{Message: "set a PIN first: whitespc pin set"}
	}
	if err := a.requirePin(ctx); err != nil {
		return err
	}

	var questions, answers [3]string
	for i := range questions {
		if questions[i], err = a.Prompt.Line(fmt.Sprintf("Question %d", i+1)); err != nil {
			return err
		}
		if answers[i], err = a.Prompt.Secret(fmt.Sprintf("Answer %d", i+1)); err != nil {
			return err
		}
	}
	if err := a.Guard.SetSecurityQuestions(ctx, questions, answers); err != nil {
		return err
	}
	return a.done(args, "recovery set", "Security questions saved.")
}

func (a *App) recoveryQuestions(ctx context.Context, args Args) error {
	has, err := a.Guard.HasSecurityQuestions(ctx)
	if err != nil {
		return err
	}
	data := QuestionsData{Configured: has, Questions: []string{}}
	if has {
		q, err := a.Guard.SecurityQuestions(ctx)
		if err != nil {
			return err
		}
		data.Questions = q[:]
	}

	return a.emit(args, "recovery questions", data, func() {
		if !has {
			fmt.Fprintln(a.Out, DimStyle.Render("No security questions are set up."))
			return
		}
		fmt.Fprintln(a.Out, TitleStyle.Render("Security questions"))
		for i, q := range data.Questions {
			fmt.Fprintf(a.Out, "  %d. %s\n", i+1, ValueStyle.Render(q))
		}
	})
}

// answerQuestions prompts for the three answers and checks them. Wrong
// answers count toward the PIN lockout.
func (a *App) answerQuestions(ctx context.Context) error {
	has, err := a.Guard.HasSecurityQuestions(ctx)
	if err != nil {
		return err
	}
	if !has {
		return &UsageError{Message: "no security questions are set up"}
	}
	questions, err := a.Guard.SecurityQuestions(ctx)
	if err != nil {
		return err
	}

	var answers [3]string
	for i, q := range questions {
		if answers[i], err = a.Prompt.Secret(q); err != nil {
			return err
		}
	}
	ok, err := a.Guard.ValidateSecurityAnswers(ctx, answers)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	status, err := a.Guard.CheckLockoutStatus(ctx)
	if err != nil {
		return err
	}
	if status.LockedOut {
		return fmt.Errorf("%w: too many attempts, try again in %ds", ErrAccessDenied, status.RemainingSeconds)
	}
	return fmt.Errorf("%w: answers did not match", ErrAccessDenied)
}

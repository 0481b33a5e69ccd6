package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"recruit-matcher/internal/matching"
	"recruit-matcher/internal/model"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const promptDone = "Done"

// chooser 返回所选项下标，便于测试替换交互提示。
type chooser func(label string, items []string) (int, error)

func promptChooser(label string, items []string) (int, error) {
	sel := promptui.Select{Label: label, Items: items, Size: 10}
	idx, _, err := sel.Run()
	return idx, err
}

func newMatchCmd(opts *rootOptions) *cobra.Command {
	var (
		interactive bool
		by          string
	)
	cmd := &cobra.Command{
		Use:   "match <request-id>",
		Short: "List candidates matching an open hiring request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDeps(cmd, func(ctx context.Context, _ AppConfig, log *zap.Logger, deps appDeps) error {
				pool, err := deps.engine.LoadPool(ctx)
				if err != nil {
					log.Warn("pool unavailable, showing empty pool", zap.Error(err))
				}
				request, ok := pool.Request(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", matching.ErrRequestNotFound, args[0])
				}

				session := matching.NewSession(deps.engine, request, pool.Candidates)
				if !interactive {
					printMatches(cmd.OutOrStdout(), session.Request(), session.Matches())
					return nil
				}
				return interactiveMatch(ctx, session, by, cmd.OutOrStdout(), promptChooser)
			})
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick candidates to recommend one by one")
	cmd.Flags().StringVar(&by, "by", matching.DefaultRecommendedBy, "operator recorded as recommended_by")
	return cmd
}

// interactiveMatch 循环展示工作集，推荐成功的候选人从列表移除，失败时保留并提示。
func interactiveMatch(ctx context.Context, session *matching.Session, by string, out io.Writer, choose chooser) error {
	request := session.Request()
	for {
		matches := session.Matches()
		if len(matches) == 0 {
			fmt.Fprintln(out, "no more matching candidates")
			return nil
		}

		items := make([]string, 0, len(matches)+1)
		for _, c := range matches {
			items = append(items, describeCandidate(c))
		}
		items = append(items, promptDone)

		idx, err := choose(fmt.Sprintf("Recommend for %s (%d needed)", request.JobTitle, request.Quantity), items)
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return fmt.Errorf("prompt: %w", err)
		}
		if idx < 0 || idx >= len(matches) {
			return nil
		}

		picked := matches[idx]
		id, err := session.Recommend(ctx, picked.ID, by)
		if err != nil {
			fmt.Fprintf(out, "failed to recommend %s: %v\n", picked.FullName, err)
			continue
		}
		fmt.Fprintf(out, "recommended %s (%s)\n", picked.FullName, id)
	}
}

func printMatches(out io.Writer, request model.HiringRequest, matches []model.Candidate) {
	fmt.Fprintf(out, "%s (%s): %d matching candidates\n", request.JobTitle, request.ID, len(matches))
	if request.RequirementsText != "" {
		fmt.Fprintf(out, "  requirements: %s\n", request.RequirementsText)
	}
	for _, c := range matches {
		fmt.Fprintf(out, "  %s  %s\n", c.ID, describeCandidate(c))
	}
}

func describeCandidate(c model.Candidate) string {
	desc := fmt.Sprintf("%s, %s, %d yrs", c.FullName, c.Profession, c.ExperienceYears)
	if len(c.Skills) > 0 {
		desc += " [" + strings.Join(c.Skills, ", ") + "]"
	}
	return desc
}

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/lms-auditor/internal/dto"
)

func newCorrectCmd(env *cliEnv) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "correct <course ids...>",
		Short: "Correct the failing rules of one or more courses",
		Long: `Apply every correction the failing rules allow and re-check each assignment.

Corrections write to the LMS: points, grading, attempts, module name and weight,
plagiarism settings, discussion type, group categories and teams. Rubric rules are
reported for manual follow-up. Without --yes the command asks for confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			courseIDs := dto.ParseCourseIDs(strings.Join(args, " "))
			if len(courseIDs) == 0 {
				return fmt.Errorf("no numeric course id in %q", strings.Join(args, " "))
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Write corrections to %d course(s)? [y/N] ", len(courseIDs))) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}

			services, err := env.lms(cmd.Context())
			if err != nil {
				return err
			}
			corrections, err := services.Audits.CorrectCourses(cmd.Context(), courseIDs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if env.jsonOutput {
				return writeJSON(out, corrections)
			}
			for _, correction := range corrections {
				fmt.Fprintln(out, renderCorrection(correction))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

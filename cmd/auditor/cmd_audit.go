package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-auditor/internal/dto"
	"github.com/noah-isme/lms-auditor/internal/models"
	"github.com/noah-isme/lms-auditor/internal/service"
	"github.com/noah-isme/lms-auditor/pkg/storage"
)

func newAuditCmd(env *cliEnv) *cobra.Command {
	var (
		format string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "audit <course ids...>",
		Short: "Audit the assignments of one or more courses",
		Long: `Audit the Teamwork, Final Work and Forum assignments of each course.

Course ids may be separated by spaces, commas or newlines; anything that is not a
number is ignored. With --export the report of each course is also written to --out.`,
		Example: `  auditor audit 12345 12346
  auditor audit "12345, 12346" --export pdf --out ./reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			courseIDs := dto.ParseCourseIDs(strings.Join(args, " "))
			if len(courseIDs) == 0 {
				return fmt.Errorf("no numeric course id in %q", strings.Join(args, " "))
			}

			var exportFormat models.ExportFormat
			if format != "" {
				parsed, err := service.ParseExportFormat(format)
				if err != nil {
					return err
				}
				exportFormat = parsed
			}

			services, err := env.lms(cmd.Context())
			if err != nil {
				return err
			}

			audits := services.Audits.AuditCourses(cmd.Context(), courseIDs)
			out := cmd.OutOrStdout()
			if env.jsonOutput {
				if err := writeJSON(out, audits); err != nil {
					return err
				}
			} else {
				for _, audit := range audits {
					fmt.Fprintln(out, renderAudit(audit))
				}
			}

			if exportFormat == "" {
				return nil
			}
			store, err := storage.NewLocalStorage(outDir)
			if err != nil {
				return err
			}
			for _, audit := range audits {
				rendered, err := services.Export.Render(audit, exportFormat)
				if err != nil {
					return err
				}
				path, err := store.Save(rendered.Filename, rendered.Payload)
				if err != nil {
					return err
				}
				env.logger.Info("report written", zap.Int64("course_id", audit.Course.ID), zap.String("path", path))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "export", "", "also write each report as csv or pdf")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory for exported reports")
	return cmd
}

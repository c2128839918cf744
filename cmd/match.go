package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/scholarship-matcher/internal/eligibility"
	"github.com/spigell/scholarship-matcher/internal/matching"
	"github.com/spigell/scholarship-matcher/internal/store"
	"github.com/spigell/scholarship-matcher/internal/utils"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Print the scholarships a student is eligible for",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("student", "s", "", "student id. When empty, the student is picked interactively")
	matchCmd.Flags().Bool("report-json", false, "print the match report as JSON")
}

func match(cmd *cobra.Command) {
	ctx := context.Background()

	// Keep stdout for the report.
	logger, config := bootstrap("stderr")
	defer logger.Sync()

	db, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening the record store", zap.Error(err))
	}
	defer db.Close()

	studentID := strings.TrimSpace(cmd.Flag("student").Value.String())
	if studentID == "" {
		students, err := db.ListStudents(ctx)
		if err != nil {
			logger.Fatal("listing students", zap.Error(err))
		}
		if len(students) == 0 {
			logger.Info("exiting", zap.String("reason", "no students stored"), zap.String("hint", "run the seed command first"))
			return
		}

		studentID, err = pickStudent(students)
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	service := newMatchService(ctx, config, db, logger)

	report, err := service.Match(ctx, studentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Fatal("student not found", zap.String("student_id", studentID))
		}
		logger.Fatal("matching", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	if cmd.Flag("report-json").Value.String() == "true" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			logger.Fatal("encoding report", zap.Error(err))
		}
		return
	}

	printReport(out, report)
}

func pickStudent(students []*eligibility.Student) (string, error) {
	items := make([]string, 0, len(students))
	for _, st := range students {
		items = append(items, studentLabel(st))
	}

	studentPrompt := promptui.Select{
		Label: "Choose a student and press ENTER",
		Items: items,
		Size:  10,
	}

	_, selected, err := studentPrompt.Run()
	if err != nil {
		return "", err
	}

	return strings.Split(selected, " ")[0], nil
}

func studentLabel(st *eligibility.Student) string {
	return fmt.Sprintf("%s %s / %s / GPA %s", st.ID, st.Name, st.Major, formatGPA(st.GPA))
}

func formatGPA(gpa float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", gpa), "0"), ".")
}

func printReport(w io.Writer, report *matching.Report) {
	fmt.Fprintf(w, "%s (%s): %d matches, %s total potential aid\n",
		report.StudentName, report.StudentID, report.TotalMatches, utils.FormatAmount(report.TotalPotentialAid))

	for i, m := range report.Matches {
		sch := m.Scholarship
		fmt.Fprintf(w, "\n%d. %s - %s", i+1, sch.Name, utils.FormatAmount(sch.Amount))
		if sch.Provider != "" {
			fmt.Fprintf(w, " (%s)", sch.Provider)
		}
		fmt.Fprintln(w)

		if !sch.Deadline.IsZero() {
			fmt.Fprintf(w, "   deadline: %s\n", sch.Deadline.Format("2006-01-02"))
		}
		if sch.URL != "" {
			fmt.Fprintf(w, "   url: %s\n", sch.URL)
		}
		for _, reason := range m.Reasons {
			fmt.Fprintf(w, "   - %s\n", reason)
		}
		if m.Explanation != "" {
			fmt.Fprintf(w, "   %s\n", m.Explanation)
		}
	}
}
